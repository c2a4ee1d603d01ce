package viewers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

var (
	ErrQuotaExceeded   = errors.New("youtube: quota exceeded")
	ErrRateLimited     = errors.New("youtube: rate limited")
	ErrKeyInvalid      = errors.New("youtube: api key invalid")
	ErrForbidden       = errors.New("youtube: forbidden")
	ErrVideoNotFound   = errors.New("youtube: video not found")
	ErrChannelNotFound = errors.New("youtube: channel not found")
)

// errorClass categorizes YouTube Data API error responses for targeted handling.
type errorClass int

const (
	errNone          errorClass = iota
	errQuotaExceeded            // quotaExceeded, dailyLimitExceeded
	errRateLimited              // rateLimitExceeded, userRateLimitExceeded
	errKeyInvalid               // keyInvalid, keyExpired
	errForbidden                // forbidden, accessNotConfigured
	errNotFound                 // videoNotFound, notFound
	errBackend                  // backendError, internalError
)

// classifyError inspects a response body for known YouTube error reasons.
func classifyError(body []byte) errorClass {
	var errResp struct {
		Error struct {
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) != nil || len(errResp.Error.Errors) == 0 {
		return errNone
	}

	for _, e := range errResp.Error.Errors {
		switch e.Reason {
		case "quotaExceeded", "dailyLimitExceeded":
			return errQuotaExceeded
		case "rateLimitExceeded", "userRateLimitExceeded":
			return errRateLimited
		case "keyInvalid", "keyExpired":
			return errKeyInvalid
		case "forbidden", "accessNotConfigured":
			return errForbidden
		case "videoNotFound", "notFound":
			return errNotFound
		case "backendError", "internalError":
			return errBackend
		}
	}
	return errNone
}

func (c errorClass) err() error {
	switch c {
	case errQuotaExceeded:
		return ErrQuotaExceeded
	case errRateLimited:
		return ErrRateLimited
	case errKeyInvalid:
		return ErrKeyInvalid
	case errForbidden:
		return ErrForbidden
	case errNotFound:
		return ErrVideoNotFound
	default:
		return nil
	}
}

// errorReason is a short metrics label for err.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrKeyInvalid):
		return "key_invalid"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrVideoNotFound), errors.Is(err, ErrChannelNotFound):
		return "not_found"
	default:
		return "other"
	}
}

// parseRetryAfter parses a Retry-After header given in seconds or as an HTTP date.
// Falls back to 15 minutes from now if missing or invalid.
func parseRetryAfter(v string, now time.Time) time.Time {
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return now.Add(time.Duration(secs) * time.Second)
	}
	if t, err := http.ParseTime(v); err == nil {
		return t
	}
	return now.Add(15 * time.Minute)
}
