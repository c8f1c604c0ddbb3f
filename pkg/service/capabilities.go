package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/protocol/logger"
)

const defaultCapabilitiesTimeout = 10 * time.Second

type HTTPCapabilityFetcherParams struct {
	// URL is the capabilities endpoint; when empty Static is returned as is.
	URL    string
	Token  string
	Static types.Capabilities
	Client *http.Client
	Logger logger.Logger
}

// HTTPCapabilityFetcher loads the relay url and ICE servers the client may use.
// Values missing from the response are taken from Static.
type HTTPCapabilityFetcher struct {
	params HTTPCapabilityFetcherParams
}

func NewHTTPCapabilityFetcher(params HTTPCapabilityFetcherParams) *HTTPCapabilityFetcher {
	if params.Client == nil {
		params.Client = &http.Client{Timeout: defaultCapabilitiesTimeout}
	}
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	return &HTTPCapabilityFetcher{params: params}
}

func (f *HTTPCapabilityFetcher) FetchCapabilities(ctx context.Context) (types.Capabilities, error) {
	if f.params.URL == "" {
		return f.params.Static, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.params.URL, nil)
	if err != nil {
		return types.Capabilities{}, err
	}
	req.Header.Set("Accept", "application/json")
	if f.params.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.params.Token)
	}

	resp, err := f.params.Client.Do(req)
	if err != nil {
		return types.Capabilities{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Capabilities{}, errors.Wrapf(ErrCapabilitiesStatus, "%d", resp.StatusCode)
	}

	caps := types.Capabilities{}
	if err := json.NewDecoder(resp.Body).Decode(&caps); err != nil {
		return types.Capabilities{}, errors.Wrap(err, "could not decode capabilities")
	}
	if caps.RelayURL == "" {
		caps.RelayURL = f.params.Static.RelayURL
	}
	if len(caps.ICEServers) == 0 {
		caps.ICEServers = f.params.Static.ICEServers
	}

	f.params.Logger.Debugw("fetched media capabilities",
		"relayURL", caps.RelayURL,
		"iceServers", len(caps.ICEServers),
	)
	return caps, nil
}
