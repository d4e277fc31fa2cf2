package risc

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mbd888/risc/internal/metrics"
)

// SnapshotMaxAge is how far a snapshot's date may drift from now, in either
// direction, before it is discarded.
const SnapshotMaxAge = 600 * time.Second

// keyHexLen is the derived AES-128 key length in hex characters.
const keyHexLen = 32

var (
	errStaleSnapshot  = errors.New("result too far out of date")
	errUnknownStatus  = errors.New("unknown snapshot status")
	errBadPadding     = errors.New("invalid padding")
	errBadBlockLength = errors.New("ciphertext is not a whole number of blocks")
)

// Status is the verdict of a snapshot.
type Status string

const (
	StatusRisky  Status = "risky"
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Valid reports whether s is one of the known verdicts.
func (s Status) Valid() bool {
	switch s {
	case StatusRisky, StatusPassed, StatusFailed:
		return true
	}
	return false
}

// Snapshot is a decrypted risk assessment produced by the browser script.
type Snapshot struct {
	SnapshotID string  `json:"snapshot_id" yaml:"snapshot_id"`
	BrowserID  string  `json:"browser_id" yaml:"browser_id"`
	Date       int64   `json:"date" yaml:"date"` // Unix seconds
	Score      float64 `json:"score" yaml:"score"`
	Status     Status  `json:"status" yaml:"status"`

	// Derived from Status; exactly one is true.
	Risky  bool `json:"risky" yaml:"risky"`
	Passed bool `json:"passed" yaml:"passed"`
	Failed bool `json:"failed" yaml:"failed"`

	// scoreMissing is set when a decrypted payload carried no score.
	scoreMissing bool
}

// IssuedAt returns Date as a time.
func (s *Snapshot) IssuedAt() time.Time {
	return time.Unix(s.Date, 0)
}

func (s *Snapshot) setFlags() {
	s.Risky = s.Status == StatusRisky
	s.Passed = s.Status == StatusPassed
	s.Failed = s.Status == StatusFailed
}

// sealedSnapshot is the wire form emitted by the browser script.
type sealedSnapshot struct {
	Index int    `json:"ix"`
	IV    string `json:"iv"`
	Data  string `json:"data"`
}

// DecryptSnapshot decrypts and checks a sealed snapshot blob. It returns nil
// when the blob cannot be decrypted or parsed, carries an unknown status, or
// is dated more than SnapshotMaxAge away from now. The reason is reported
// through the client's Output.
func (c *Client) DecryptSnapshot(blob string) *Snapshot {
	if !c.ready() {
		return nil
	}

	snap, err := openSnapshot(c.secret, blob)
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues(snapshotResult(err)).Inc()
		c.out.Error("Error decrypting snapshot: " + err.Error())
		c.logger.Debug("snapshot rejected", "error", err)
		return nil
	}

	if err := checkFreshness(snap, c.now()); err != nil {
		metrics.SnapshotsTotal.WithLabelValues(metrics.SnapshotStale).Inc()
		c.out.Error("Snapshot " + err.Error())
		c.logger.Debug("snapshot rejected", "snapshot_id", snap.SnapshotID, "date", snap.Date, "error", err)
		return nil
	}

	metrics.SnapshotsTotal.WithLabelValues(metrics.SnapshotAccepted).Inc()
	return snap
}

// ValidateSnapshot asks the server to confirm a decrypted snapshot and
// returns the same snapshot on success.
func (c *Client) ValidateSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	switch {
	case snap == nil:
		return nil, invalidInput("no snapshot specified")
	case snap.SnapshotID == "":
		return nil, invalidInput("no snapshot ID specified")
	case snap.BrowserID == "":
		return nil, invalidInput("no browser ID specified")
	case snap.Date == 0:
		return nil, invalidInput("no snapshot date specified")
	case snap.scoreMissing:
		return nil, invalidInput("no snapshot score specified")
	case !snap.Status.Valid():
		return nil, invalidInput("no valid snapshot status specified")
	}

	params := url.Values{
		"snapshot_id": {snap.SnapshotID},
		"browser_id":  {snap.BrowserID},
		"date":        {strconv.FormatInt(snap.Date, 10)},
		"score":       {strconv.FormatFloat(snap.Score, 'f', -1, 64)},
		"status":      {string(snap.Status)},
	}
	if _, err := c.call(ctx, http.MethodGet, "api/snapshots/validate", params); err != nil {
		return nil, err
	}
	return snap, nil
}

// SealSnapshot encrypts snap the way the browser script does, using the key
// derived from secret at offset ix. iv must be 16 bytes.
func SealSnapshot(secret string, ix int, iv []byte, snap *Snapshot) (string, error) {
	key, err := deriveKey(secret, ix)
	if err != nil {
		return "", err
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	plain, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	sealed, err := json.Marshal(sealedSnapshot{
		Index: ix,
		IV:    hex.EncodeToString(iv),
		Data:  base64.StdEncoding.EncodeToString(out),
	})
	if err != nil {
		return "", err
	}
	return string(sealed), nil
}

// openSnapshot decrypts blob and parses the snapshot it carries.
func openSnapshot(secret, blob string) (*Snapshot, error) {
	var sealed sealedSnapshot
	if err := json.Unmarshal([]byte(blob), &sealed); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}

	key, err := deriveKey(secret, sealed.Index)
	if err != nil {
		return nil, err
	}
	iv, err := hex.DecodeString(sealed.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	data, err := base64.StdEncoding.DecodeString(sealed.Data)
	if err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, errBadBlockLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, data)
	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if !snap.Status.Valid() {
		return nil, fmt.Errorf("%w %q", errUnknownStatus, snap.Status)
	}
	var score struct {
		Score *float64 `json:"score"`
	}
	if err := json.Unmarshal(plain, &score); err == nil && score.Score == nil {
		snap.scoreMissing = true
	}
	snap.setFlags()
	return &snap, nil
}

// deriveKey takes 32 hex characters of secret+secret starting at ix. The
// doubling lets ix run past the end of the secret itself.
func deriveKey(secret string, ix int) ([]byte, error) {
	doubled := secret + secret
	if ix < 0 || ix+keyHexLen > len(doubled) {
		return nil, fmt.Errorf("key index %d out of range", ix)
	}
	key, err := hex.DecodeString(doubled[ix : ix+keyHexLen])
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// checkFreshness compares bounds rather than subtracting so that extreme
// dates cannot overflow into the window.
func checkFreshness(snap *Snapshot, now time.Time) error {
	nowUnix := now.Unix()
	maxAge := int64(SnapshotMaxAge / time.Second)
	if snap.Date < nowUnix-maxAge || snap.Date > nowUnix+maxAge {
		return errStaleSnapshot
	}
	return nil
}

func snapshotResult(err error) string {
	if errors.Is(err, errUnknownStatus) {
		return metrics.SnapshotInvalid
	}
	return metrics.SnapshotUndecryptable
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte(nil), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errBadBlockLength
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, errBadPadding
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errBadPadding
		}
	}
	return b[:len(b)-n], nil
}
