package aprio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Millis is an epoch-millisecond timestamp that the service sends either as a number or a numeric string.
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*m = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*m = 0
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = Millis(v)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*m = Millis(int64(v))
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*m = Millis(t.UnixMilli())
		return nil
	}
	return fmt.Errorf("invalid timestamp %s", data)
}

// Time returns the zero time when the timestamp is absent.
func (m Millis) Time() time.Time {
	if m <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(m))
}

type User struct {
	Id string `json:"id"`
}

type Session struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type WalletStatus struct {
	CheckInCount         json.Number `json:"checkInCount"`
	Points               json.Number `json:"points"`
	UserTransactionCount json.Number `json:"userTransactionCount"`
	LastCheckinTime      Millis      `json:"lastCheckinTime"`
}

// Summary renders the status line printed after login.
func (s *WalletStatus) Summary() string {
	return fmt.Sprintf("Check-in #%s | Points: %s | TX Count: %s",
		orDash(s.CheckInCount), orDash(s.Points), orDash(s.UserTransactionCount))
}

type CheckinRequest struct {
	WalletAddress   string `json:"walletAddress"`
	TransactionHash string `json:"transactionHash"`
	ChainId         int64  `json:"chainId"`
}

type CheckinResult struct {
	LastCheckinTime Millis `json:"lastCheckinTime"`
}

// QuestData is the free-form quest summary of a wallet.
type QuestData map[string]interface{}

// Summary renders "k: v | k: v" with keys sorted.
func (q QuestData) Summary() string {
	keys := q.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, q[k]))
	}
	return strings.Join(parts, " | ")
}

func (q QuestData) Keys() []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Activity struct {
	Type            string      `json:"type"`
	TransactionHash string      `json:"transactionHash"`
	Points          json.Number `json:"points"`
	CreatedAt       Millis      `json:"createdAt"`
}

type errorBody struct {
	Message    interface{} `json:"message"`
	Error      string      `json:"error"`
	StatusCode int         `json:"statusCode"`
}

func (e *errorBody) text() string {
	switch m := e.Message.(type) {
	case string:
		if m != "" {
			return m
		}
	case []interface{}:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "; ")
	}
	return e.Error
}

func orDash(n json.Number) string {
	if n == "" || n == "0" {
		return "-"
	}
	return n.String()
}
