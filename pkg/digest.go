package dupsample

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DigestEngine hashes whole files or sampled block sets while leaving the
// file's access and modification times as it found them.
type DigestEngine struct {
	algorithm *HashAlgorithm
	blockSize int
	buffers   *blockPool
}

// NewDigestEngine creates an engine reading blockSize bytes at a time
func NewDigestEngine(algorithm *HashAlgorithm, blockSize int) (*DigestEngine, error) {
	if algorithm == nil {
		return nil, fmt.Errorf("digest engine requires a hash algorithm")
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	return &DigestEngine{
		algorithm: algorithm,
		blockSize: blockSize,
		buffers:   newBlockPool(blockSize),
	}, nil
}

// BlockSize returns the chunk size used for reads
func (de *DigestEngine) BlockSize() int {
	return de.blockSize
}

// Algorithm returns the configured hash algorithm
func (de *DigestEngine) Algorithm() *HashAlgorithm {
	return de.algorithm
}

// Full returns the hex digest of the entire file content
func (de *DigestEngine) Full(path string) (string, error) {
	return de.Digest(path, nil)
}

// Sampled returns the hex digest of one block at each offset, in order
func (de *DigestEngine) Sampled(path string, offsets []int64) (string, error) {
	if offsets == nil {
		offsets = []int64{}
	}
	return de.Digest(path, offsets)
}

// Digest hashes path. A nil offsets slice streams the whole file; otherwise one
// block is read at each offset and fed to the hash in the given order. Reads that
// come back short or empty at end of file are not errors.
func (de *DigestEngine) Digest(path string, offsets []int64) (string, error) {
	times, err := statTimes(path)
	if err != nil {
		return "", newFileError("stat", path, err)
	}
	if canRestoreTimes(path) {
		defer func() {
			// restore failures are ignored
			if rerr := restoreTimes(path, times); rerr != nil && IsDebugEnabled("digest") {
				VerboseLog(3, "digest: could not restore times on %s: %v", path, rerr)
			}
		}()
	}

	file, err := os.Open(path)
	if err != nil {
		return "", newFileError("open", path, err)
	}
	defer file.Close()

	bufPtr := de.buffers.Get()
	defer de.buffers.Put(bufPtr)
	buf := *bufPtr

	hasher := de.algorithm.NewFunc()
	if offsets == nil {
		for {
			n, err := file.Read(buf)
			if n > 0 {
				hasher.Write(buf[:n])
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", newFileError("read", path, err)
			}
		}
	} else {
		for _, off := range offsets {
			n, err := file.ReadAt(buf, off)
			if err != nil && err != io.EOF {
				return "", newFileError("read", path, err)
			}
			if n == 0 {
				continue
			}
			hasher.Write(buf[:n])
		}
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if IsDebugEnabled("digest") {
		if offsets == nil {
			VerboseLog(3, "digest: full %s %s", sum, path)
		} else {
			VerboseLog(3, "digest: sampled %s %s offsets=%v", sum, path, offsets)
		}
	}
	return sum, nil
}
