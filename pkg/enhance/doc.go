// Package enhance talks to the super-sampling service that turns a raw
// tile into its final, enhanced version.
//
// # Protocol
//
// The service accepts
//
//	POST {base}/supersample
//	Content-Type: multipart/form-data; field "image" = raw tile bytes
//
// and answers 200 with the enhanced image as the response body. 5xx and
// 429 responses are transient; other non-2xx responses are permanent.
//
// # Components
//
//   - [Client]: HTTP client for a remote service
//   - [Upscaler]: local 2x CatmullRom upscaler, usable directly or behind
//     [NewHandler] as a self-hosted service
//   - [Cached]: wraps any enhancer with a result cache keyed by the
//     SHA-256 of the raw tile
package enhance

import "context"

// Enhancer produces the enhanced version of a raw tile.
type Enhancer interface {
	Enhance(ctx context.Context, image []byte) ([]byte, error)
}
