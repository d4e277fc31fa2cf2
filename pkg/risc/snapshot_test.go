package risc

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testIV  = []byte("0123456789abcdef")
	baseNow = time.Unix(1_700_000_000, 0)
)

func seal(t *testing.T, ix int, snap *Snapshot) string {
	t.Helper()
	blob, err := SealSnapshot(testSecret, ix, testIV, snap)
	require.NoError(t, err)
	return blob
}

func sampleSnapshot(status Status) *Snapshot {
	return &Snapshot{
		SnapshotID: "snap-1",
		BrowserID:  "browser-1",
		Date:       baseNow.Unix(),
		Score:      0.42,
		Status:     status,
	}
}

func TestDecryptSnapshot_RoundTrip(t *testing.T) {
	c := newTestClient(t, Options{Now: fixedClock(baseNow)})

	for _, status := range []Status{StatusRisky, StatusPassed, StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			got := c.DecryptSnapshot(seal(t, 0, sampleSnapshot(status)))
			require.NotNil(t, got)

			assert.Equal(t, "snap-1", got.SnapshotID)
			assert.Equal(t, "browser-1", got.BrowserID)
			assert.Equal(t, baseNow.Unix(), got.Date)
			assert.Equal(t, 0.42, got.Score)
			assert.Equal(t, status, got.Status)
			assert.Equal(t, baseNow, got.IssuedAt())

			assert.Equal(t, status == StatusRisky, got.Risky)
			assert.Equal(t, status == StatusPassed, got.Passed)
			assert.Equal(t, status == StatusFailed, got.Failed)
		})
	}
}

func TestDecryptSnapshot_KeyIndexWrapsAroundSecret(t *testing.T) {
	c := newTestClient(t, Options{Now: fixedClock(baseNow)})

	for _, ix := range []int{0, 1, 7, 16, 31, 32} {
		got := c.DecryptSnapshot(seal(t, ix, sampleSnapshot(StatusPassed)))
		require.NotNil(t, got, "ix %d", ix)
		assert.True(t, got.Passed)
	}
}

// encryptWithKey builds a sealed envelope with stdlib AES-CBC and a literal
// key, independent of the package's own key derivation and padding.
func encryptWithKey(t *testing.T, ix int, keyHex, ivHex, plaintext string) string {
	t.Helper()
	key, err := hex.DecodeString(keyHex)
	require.NoError(t, err)
	iv, err := hex.DecodeString(ivHex)
	require.NoError(t, err)

	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append([]byte(plaintext), bytes.Repeat([]byte{byte(pad)}, pad)...)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	env, err := json.Marshal(map[string]any{
		"ix":   ix,
		"iv":   ivHex,
		"data": base64.StdEncoding.EncodeToString(out),
	})
	require.NoError(t, err)
	return string(env)
}

func TestDecryptSnapshot_KnownKey(t *testing.T) {
	// (testSecret+testSecret)[20:52]
	const keyAt20 = "aabbccddeeff00112233445566778899"
	const iv = "0f0e0d0c0b0a09080706050403020100"

	plaintext := fmt.Sprintf(
		`{"snapshot_id":"kat-1","browser_id":"br-kat","date":%d,"score":7.5,"status":"failed"}`,
		baseNow.Unix())
	blob := encryptWithKey(t, 20, keyAt20, iv, plaintext)

	c := newTestClient(t, Options{Now: fixedClock(baseNow)})
	got := c.DecryptSnapshot(blob)
	require.NotNil(t, got)
	assert.Equal(t, "kat-1", got.SnapshotID)
	assert.Equal(t, "br-kat", got.BrowserID)
	assert.Equal(t, 7.5, got.Score)
	assert.True(t, got.Failed)
	assert.False(t, got.Risky || got.Passed)

	// A neighbouring offset yields a different key and must not decrypt.
	assert.Nil(t, c.DecryptSnapshot(encryptWithKey(t, 21, keyAt20, iv, plaintext)))
}

func TestSealSnapshot_MatchesKnownKey(t *testing.T) {
	const keyAt20 = "aabbccddeeff00112233445566778899"
	ivBytes, err := hex.DecodeString("0f0e0d0c0b0a09080706050403020100")
	require.NoError(t, err)

	blob, err := SealSnapshot(testSecret, 20, ivBytes, sampleSnapshot(StatusRisky))
	require.NoError(t, err)

	var env struct {
		Index int    `json:"ix"`
		IV    string `json:"iv"`
		Data  string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(blob), &env))
	assert.Equal(t, 20, env.Index)
	assert.Equal(t, "0f0e0d0c0b0a09080706050403020100", env.IV)

	data, err := base64.StdEncoding.DecodeString(env.Data)
	require.NoError(t, err)
	key, _ := hex.DecodeString(keyAt20)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, ivBytes).CryptBlocks(plain, data)
	plain = plain[:len(plain)-int(plain[len(plain)-1])]

	var snap map[string]any
	require.NoError(t, json.Unmarshal(plain, &snap))
	assert.Equal(t, "snap-1", snap["snapshot_id"])
	assert.Equal(t, "risky", snap["status"])
}

func TestDecryptSnapshot_Freshness(t *testing.T) {
	tests := []struct {
		name   string
		offset int64
		ok     bool
	}{
		{"now", 0, true},
		{"600s old", -600, true},
		{"601s old", -601, false},
		{"600s ahead", 600, true},
		{"601s ahead", 601, false},
		{"far past", math.MinInt64, false},
		{"far future", math.MaxInt64 - baseNow.Unix(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &recordingOutput{}
			c := newTestClient(t, Options{Now: fixedClock(baseNow), Output: out})

			snap := sampleSnapshot(StatusRisky)
			snap.Date = baseNow.Unix() + tt.offset
			got := c.DecryptSnapshot(seal(t, 3, snap))

			if tt.ok {
				assert.NotNil(t, got)
				assert.Empty(t, out.Lines())
				return
			}
			assert.Nil(t, got)
			assert.Equal(t, []string{"error: Snapshot result too far out of date"}, out.Lines())
		})
	}
}

func TestDecryptSnapshot_Garbage(t *testing.T) {
	good := seal(t, 0, sampleSnapshot(StatusPassed))
	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(good), &envelope))

	mutate := func(k string, v any) string {
		m := map[string]any{}
		for kk, vv := range envelope {
			m[kk] = vv
		}
		m[k] = v
		b, _ := json.Marshal(m)
		return string(b)
	}

	unknownStatus := &Snapshot{SnapshotID: "s", BrowserID: "b", Date: baseNow.Unix(), Status: "maybe"}
	unknownBlob, err := SealSnapshot(testSecret, 0, testIV, unknownStatus)
	require.NoError(t, err)

	blobs := map[string]string{
		"not json":           "not json",
		"empty":              "",
		"negative index":     mutate("ix", -1),
		"index out of range": mutate("ix", 33),
		"bad iv hex":         mutate("iv", "zz"),
		"short iv":           mutate("iv", "0011"),
		"bad base64":         mutate("data", "!!!"),
		"empty data":         mutate("data", ""),
		"partial block":      mutate("data", "AAAA"),
		"wrong iv":           mutate("iv", "ffffffffffffffffffffffffffffffff"),
		"unknown status":     unknownBlob,
	}

	for name, blob := range blobs {
		t.Run(name, func(t *testing.T) {
			out := &recordingOutput{}
			c := newTestClient(t, Options{Now: fixedClock(baseNow), Output: out})
			assert.NotPanics(t, func() {
				assert.Nil(t, c.DecryptSnapshot(blob))
			})
			assert.Equal(t, 1, out.Count("error"))
		})
	}
}

func TestDecryptSnapshot_WrongSecret(t *testing.T) {
	c := newTestClient(t, Options{Secret: "ffeeddccbbaa99887766554433221100", Now: fixedClock(baseNow)})
	assert.Nil(t, c.DecryptSnapshot(seal(t, 0, sampleSnapshot(StatusPassed))))
}

func TestDecryptSnapshot_NonHexSecret(t *testing.T) {
	c := newTestClient(t, Options{Secret: "not-a-hex-secret-at-all-nope-nope", Now: fixedClock(baseNow)})
	assert.Nil(t, c.DecryptSnapshot(seal(t, 0, sampleSnapshot(StatusPassed))))
}

func TestSealSnapshot_RejectsBadInput(t *testing.T) {
	_, err := SealSnapshot(testSecret, 0, []byte("short"), sampleSnapshot(StatusPassed))
	assert.Error(t, err)

	_, err = SealSnapshot(testSecret, 64, testIV, sampleSnapshot(StatusPassed))
	assert.Error(t, err)
}

func TestValidateSnapshot_MissingFields(t *testing.T) {
	doer := newDoer(respond(200, `{}`))
	c := newTestClient(t, Options{HTTPClient: doer})

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"no id", func(s *Snapshot) { s.SnapshotID = "" }},
		{"no browser", func(s *Snapshot) { s.BrowserID = "" }},
		{"no date", func(s *Snapshot) { s.Date = 0 }},
		{"no status", func(s *Snapshot) { s.Status = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSnapshot(StatusPassed)
			tt.mutate(s)
			_, err := c.ValidateSnapshot(context.Background(), s)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := c.ValidateSnapshot(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int32(0), doer.calls.Load())
}

func TestValidateSnapshot_DecryptedWithoutScore(t *testing.T) {
	doer := newDoer(respond(200, `{}`))
	c := newTestClient(t, Options{HTTPClient: doer, Now: fixedClock(baseNow)})

	plaintext := fmt.Sprintf(
		`{"snapshot_id":"s","browser_id":"b","date":%d,"status":"passed"}`, baseNow.Unix())
	snap := c.DecryptSnapshot(encryptWithKey(t, 0, testSecret, hex.EncodeToString(testIV), plaintext))
	require.NotNil(t, snap)
	assert.Zero(t, snap.Score)

	_, err := c.ValidateSnapshot(context.Background(), snap)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "no snapshot score specified")
	assert.Equal(t, int32(0), doer.calls.Load())

	zeroScore := fmt.Sprintf(
		`{"snapshot_id":"s","browser_id":"b","date":%d,"score":0,"status":"passed"}`, baseNow.Unix())
	snap = c.DecryptSnapshot(encryptWithKey(t, 0, testSecret, hex.EncodeToString(testIV), zeroScore))
	require.NotNil(t, snap)
	_, err = c.ValidateSnapshot(context.Background(), snap)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestValidateSnapshot_ReturnsLocalSnapshot(t *testing.T) {
	c, srv := newServerClient(t, Options{Now: fixedClock(baseNow)})
	srv.Respond(http.MethodGet, "api/snapshots/validate", http.StatusOK, `{"status":"ok","score":99}`)

	snap := c.DecryptSnapshot(seal(t, 5, sampleSnapshot(StatusRisky)))
	require.NotNil(t, snap)
	snap.Score = 0

	got, err := c.ValidateSnapshot(context.Background(), snap)
	require.NoError(t, err)
	assert.Same(t, snap, got)
	assert.Equal(t, 0.0, got.Score)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	form := reqs[0].Form
	assert.Equal(t, "snap-1", form.Get("snapshot_id"))
	assert.Equal(t, "browser-1", form.Get("browser_id"))
	assert.Equal(t, "1700000000", form.Get("date"))
	assert.Equal(t, "0", form.Get("score"))
	assert.Equal(t, "risky", form.Get("status"))
}

func TestValidateSnapshot_ServerRejects(t *testing.T) {
	c, srv := newServerClient(t, Options{})
	srv.Respond(http.MethodGet, "api/snapshots/validate", http.StatusBadRequest, `{"error":"snapshot mismatch"}`)

	_, err := c.ValidateSnapshot(context.Background(), sampleSnapshot(StatusFailed))
	require.Error(t, err)
	assert.Equal(t, "400: snapshot mismatch", err.Error())
}
