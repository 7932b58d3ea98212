package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	perr "gwdata/internal/platform/errors"
)

const zenodoBaseURL = "https://zenodo.org"

// ZenodoClient downloads files from Zenodo records via the records API
type ZenodoClient struct {
	Down *Downloader
	// BaseURL overrides the production API host, mainly for tests
	BaseURL string
}

// NewZenodoClient builds a Zenodo client over a downloader
func NewZenodoClient(d *Downloader) *ZenodoClient {
	return &ZenodoClient{Down: d, BaseURL: zenodoBaseURL}
}

type zenodoRecord struct {
	Files []zenodoFile `json:"files"`
}

type zenodoFile struct {
	Key   string `json:"key"`
	Links struct {
		Self string `json:"self"`
	} `json:"links"`
}

// DownloadRecord fetches files from a record into dir. When only is
// non-empty, files outside that set are skipped. Returns local paths
func (z *ZenodoClient) DownloadRecord(ctx context.Context, recordID, dir string, only []string) ([]string, error) {
	api := fmt.Sprintf("%s/api/records/%s", z.BaseURL, recordID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "build record request")
	}
	resp, err := z.Down.Client.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "zenodo record %s", recordID)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, perr.NotFoundf("zenodo record %s does not exist", recordID)
	}
	if resp.StatusCode >= 400 {
		return nil, perr.Unavailablef("zenodo record %s returned %d", recordID, resp.StatusCode)
	}

	var rec zenodoRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "decode record %s", recordID)
	}

	wanted := make(map[string]bool, len(only))
	for _, k := range only {
		wanted[k] = true
	}

	var paths []string
	for _, f := range rec.Files {
		if f.Links.Self == "" {
			continue
		}
		if len(wanted) > 0 && !wanted[f.Key] {
			continue
		}
		p, err := z.Down.Download(ctx, f.Links.Self, dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
