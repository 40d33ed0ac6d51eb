package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer builds cache keys.
type Keyer interface {
	// EnhanceKey identifies the enhanced version of a raw tile.
	EnhanceKey(imageHash string, opts EnhanceKeyOpts) string

	// RenderKey identifies the raw render of one coordinate.
	RenderKey(u, v float64, opts RenderKeyOpts) string
}

// EnhanceKeyOpts are the inputs besides the image that change an
// enhancement result.
type EnhanceKeyOpts struct {
	Endpoint string `json:"endpoint"`
	Factor   int    `json:"factor,omitempty"`
}

// RenderKeyOpts are the renderer settings that change a raw tile.
type RenderKeyOpts struct {
	Size     int    `json:"size"`
	Renderer string `json:"renderer"`
}

// Key kinds. Every key starts with its kind and a colon.
const (
	KindEnhance = "enhance"
	KindRender  = "render"
)

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// EnhanceKey returns "enhance:<sha256>".
func (DefaultKeyer) EnhanceKey(imageHash string, opts EnhanceKeyOpts) string {
	return digestKey(KindEnhance, imageHash, opts)
}

// RenderKey returns "render:<sha256>". Coordinates are formatted to a
// fixed precision so equal inputs always produce equal keys.
func (DefaultKeyer) RenderKey(u, v float64, opts RenderKeyOpts) string {
	return digestKey(KindRender, fmt.Sprintf("%.9f,%.9f", u, v), opts)
}

// WithPrefix returns a keyer that prepends prefix to every key of k.
// A nil k means the default keyer; an empty prefix returns k unchanged.
//
//	keyer := cache.WithPrefix(nil, "slizzai:prod:")
func WithPrefix(k Keyer, prefix string) Keyer {
	if k == nil {
		k = DefaultKeyer{}
	}
	if prefix == "" {
		return k
	}
	return prefixed{inner: k, prefix: prefix}
}

type prefixed struct {
	inner  Keyer
	prefix string
}

func (p prefixed) EnhanceKey(imageHash string, opts EnhanceKeyOpts) string {
	return p.prefix + p.inner.EnhanceKey(imageHash, opts)
}

func (p prefixed) RenderKey(u, v float64, opts RenderKeyOpts) string {
	return p.prefix + p.inner.RenderKey(u, v, opts)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digestKey hashes the JSON encoding of parts under kind.
func digestKey(kind string, parts ...any) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(parts)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
