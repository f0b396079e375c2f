package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const DefaultDigitransitURL = "https://api.digitransit.fi/routing/v2/hsl/gtfs/v1"

// Digitransit resolves trip keys with the fuzzyTrip query of the Digitransit
// routing GraphQL API.
type Digitransit struct {
	url    string
	key    string
	client *http.Client
}

func NewDigitransit(apiURL string, subscriptionKey string) *Digitransit {
	if apiURL == "" {
		apiURL = DefaultDigitransitURL
	}

	return &Digitransit{
		url:    apiURL,
		key:    subscriptionKey,
		client: &http.Client{},
	}
}

type fuzzyTripResponse struct {
	Data struct {
		FuzzyTrip *struct {
			GTFSID string `json:"gtfsId"`
		} `json:"fuzzyTrip"`
	} `json:"data"`
}

func (d *Digitransit) FuzzyTrip(ctx context.Context, routeID string, direction int, date string, seconds int) (string, error) {
	query := fmt.Sprintf(`{
  fuzzyTrip(route: %q, direction: %d, date: %q, time: %d) {
    gtfsId
  }
}`, routeID, direction, date, seconds)

	requestURL := fmt.Sprintf("%s?digitransit-subscription-key=%s", d.url, url.QueryEscape(d.key))

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, strings.NewReader(query))
	if err != nil {
		return "", errors.Wrap(err, "building fuzzy trip request")
	}
	request.Header.Set("Content-Type", "application/graphql")

	response, err := d.client.Do(request)
	if err != nil {
		return "", errors.Wrap(err, "querying digitransit")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", errors.Errorf("digitransit returned status %d", response.StatusCode)
	}

	var decoded fuzzyTripResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", errors.Wrap(err, "decoding digitransit response")
	}

	if decoded.Data.FuzzyTrip == nil || decoded.Data.FuzzyTrip.GTFSID == "" {
		return "", ErrNoMatch
	}

	return decoded.Data.FuzzyTrip.GTFSID, nil
}
