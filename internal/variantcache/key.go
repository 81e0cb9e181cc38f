package variantcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"srcset/internal/resizer"
)

// tokenLength is the number of hex characters in a content token. The
// garbage collector relies on this exact length when stripping tokens.
const tokenLength = 16

// Request is the tuple a cache key derives from. Identity must be a stable
// source identity token (the store-relative path), never an in-memory
// handle.
type Request struct {
	Identity  string
	Operation string
	Width     int
	Format    string
	Quality   int
}

// Token computes the content token for a request.
func Token(req Request) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%s|%d",
		req.Identity, req.Operation, req.Width, req.Format, req.Quality))
	return hex.EncodeToString(sum[:])[:tokenLength]
}

// FileName builds the cache file name for a source stem and request.
func FileName(stem string, req Request) string {
	return stem + "." + Token(req) + "." + resizer.Extension(req.Format)
}

// FilePath builds the store-relative cache path, mirroring the source's
// relative directory.
func FilePath(dir, stem string, req Request) string {
	name := FileName(stem, req)
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// SourceStem recovers the source stem (file name without token and without
// extension) from a variant file name.
//
// The grammar admits exactly one token: a 16-character lowercase hex
// segment in the penultimate position, i.e. <stem>.<token>.<ext> where
// stem may itself contain dots. Zero or multiple plausible token segments
// make the name ambiguous, and ok is false: the caller cannot determine
// the source and must keep the file.
func SourceStem(fileName string) (stem string, ok bool) {
	parts := strings.Split(fileName, ".")
	if len(parts) < 3 {
		return "", false
	}

	tokenIndex := -1
	for i := 1; i < len(parts)-1; i++ {
		if !looksLikeToken(parts[i]) {
			continue
		}
		if tokenIndex != -1 {
			return "", false
		}
		tokenIndex = i
	}
	if tokenIndex != len(parts)-2 {
		return "", false
	}

	return strings.Join(parts[:tokenIndex], "."), true
}

func looksLikeToken(segment string) bool {
	if len(segment) != tokenLength {
		return false
	}
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
