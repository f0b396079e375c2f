package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Text is a message keyed by ISO 639-1 language code.
type Text map[string]string

// Localizer narrows localized texts down to the language a client asked for
// with the lang query parameter.
type Localizer struct {
	Default   string
	Available []string
}

type localizedResponse struct {
	Data   map[string]Text `json:"data,omitempty"`
	Errors []Text          `json:"errors,omitempty"`
}

func (l Localizer) supported(lang string) bool {
	for _, available := range l.Available {
		if available == lang {
			return true
		}
	}

	return false
}

// Pick returns the single requested translation when available, the default
// language next, and every translation as a last resort.
func (l Localizer) Pick(lang string, text Text) Text {
	if lang != "" && l.supported(lang) {
		if value, ok := text[lang]; ok {
			return Text{lang: value}
		}
	}

	if l.Default != "" {
		if value, ok := text[l.Default]; ok {
			return Text{l.Default: value}
		}
	}

	return text
}

// Respond writes data localized for the request, flagging an unsupported
// lang parameter as an error entry rather than failing the request.
func (l Localizer) Respond(c *fiber.Ctx, data map[string]Text) error {
	lang := c.Query("lang")

	response := localizedResponse{Data: map[string]Text{}}

	if lang != "" && !l.supported(lang) {
		response.Errors = append(response.Errors, l.unsupportedLanguage(lang))
		lang = ""
	}

	for key, text := range data {
		response.Data[key] = l.Pick(lang, text)
	}

	return c.JSON(response)
}

func (l Localizer) unsupportedLanguage(lang string) Text {
	available := strings.Join(l.Available, ",")

	return Text{
		"en": fmt.Sprintf("Unsupported language (%s). Supported languages: %s", lang, available),
		"fi": fmt.Sprintf("Tukematon kieli (%s). Tuetut kielet: %s", lang, available),
	}
}
