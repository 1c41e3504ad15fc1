package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"telegram-course-store/internal/domain"
	"telegram-course-store/internal/domain/model"
)

// VerifyInitData authenticates a Telegram WebApp initData payload: the hash
// field must equal HMAC-SHA256 of the sorted key=value lines under the
// bot-token-derived secret, and auth_date must be fresh. Returns the embedded
// user profile and the payload hash (the replay-guard key).
func VerifyInitData(initData, botToken string, maxAge time.Duration, now time.Time) (*model.TelegramProfile, string, error) {
	vals, err := url.ParseQuery(initData)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrBadInitData, err)
	}
	gotHash := vals.Get("hash")
	if gotHash == "" {
		return nil, "", fmt.Errorf("%w: hash missing", domain.ErrBadInitData)
	}

	pairs := make([]string, 0, len(vals))
	for k, vs := range vals {
		if k == "hash" {
			continue
		}
		for _, v := range vs {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	want := hex.EncodeToString(hmacSHA256(secret, []byte(checkString)))
	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return nil, "", domain.ErrBadInitData
	}

	authDate, err := strconv.ParseInt(vals.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, "", fmt.Errorf("%w: auth_date missing", domain.ErrBadInitData)
	}
	if maxAge > 0 && now.Sub(time.Unix(authDate, 0)) > maxAge {
		return nil, "", domain.ErrInitDataExpired
	}

	var profile model.TelegramProfile
	if err := json.Unmarshal([]byte(vals.Get("user")), &profile); err != nil || profile.ID == 0 {
		return nil, "", fmt.Errorf("%w: user field unusable", domain.ErrBadInitData)
	}
	return &profile, gotHash, nil
}

func hmacSHA256(key, msg []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(msg)
	return h.Sum(nil)
}
