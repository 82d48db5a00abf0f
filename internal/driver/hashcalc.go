package driver

import (
	"encoding/binary"
	"fmt"
	"hash"
	"strconv"

	"github.com/minio/highwayhash"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/astio"
)

// highwayhash wants a 256-bit key; it only needs to be stable.
var cacheKeySeed = []byte("scribble-flatten-cache-key-0001!")

// CacheKey identifies one bundle result: the snapshot bytes plus every
// request field that changes the output.
type CacheKey uint64

func (k CacheKey) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

func writeField(h hash.Hash, value string) {
	var n [binary.MaxVarintLen64]byte
	_, _ = h.Write(n[:binary.PutUvarint(n[:], uint64(len(value)))])
	_, _ = h.Write([]byte(value))
}

// ComputeCacheKey hashes the snapshot together with the request settings.
// Fields are length-prefixed so that adjacent values cannot run together.
func ComputeCacheKey(snapshot []byte, req *BundleRequest) (CacheKey, error) {
	h, err := highwayhash.New64(cacheKeySeed)
	if err != nil {
		return 0, err
	}
	writeField(h, strconv.Itoa(int(diskCacheSchemaVersion)))
	writeField(h, strconv.Itoa(astio.SchemaVersion))
	writeField(h, req.Name)
	writeField(h, req.Format.String())
	writeField(h, req.CompilerVersion)
	writeField(h, strconv.FormatBool(req.Verify))
	writeField(h, strconv.FormatBool(req.ReportRenames))
	writeField(h, strconv.Itoa(len(req.Units)))
	for _, u := range req.Units {
		writeField(h, u)
	}
	_, _ = h.Write(snapshot)
	return CacheKey(h.Sum64()), nil
}
