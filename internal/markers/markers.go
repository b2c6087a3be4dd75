// Package markers reads and writes the RIFF WAVE smpl chunk that stores a
// single loop region (spec.md §4.3, §6).
package markers

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/riff"
	"github.com/google/uuid"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// LoopRegion is a (start, end) sample range, in file-sample-rate samples.
type LoopRegion struct {
	Start, End uint32
}

const (
	midiUnityNote  = 60
	smplHeaderSize = 36 // 9 u32 header fields
	loopRecordSize = 24 // 6 u32 fields per loop
)

// Read extracts the first loop region from a WAV file's smpl chunk.
// Returns (region, true) only if a smpl chunk exists and end > start.
func Read(path string) (LoopRegion, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoopRegion{}, false, waverrors.Newf("opening wav for markers: %w", err).
			Component("markers").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	defer f.Close()

	parser := riff.New(f)
	sawWave := false
	for {
		chunk, err := parser.NextChunk()
		if err != nil {
			if err == io.EOF {
				return LoopRegion{}, false, nil
			}
			return LoopRegion{}, false, waverrors.Newf("walking riff chunks: %w", err).
				Component("markers").Category(waverrors.CategoryFormat).Context("path", path).Build()
		}
		if !sawWave {
			sawWave = true
			if string(parser.Format[:]) != "WAVE" {
				return LoopRegion{}, false, waverrors.Newf("not a RIFF/WAVE file").
					Component("markers").Category(waverrors.CategoryFormat).Context("path", path).Build()
			}
		}

		if string(chunk.ID[:]) != "smpl" {
			chunk.Done()
			continue
		}

		body := make([]byte, chunk.Size)
		if _, err := io.ReadFull(chunk.R, body); err != nil {
			return LoopRegion{}, false, waverrors.Newf("reading smpl chunk: %w", err).
				Component("markers").Category(waverrors.CategoryMarkers).Build()
		}
		if len(body) < smplHeaderSize+loopRecordSize {
			return LoopRegion{}, false, nil
		}
		numLoops := binary.LittleEndian.Uint32(body[28:32])
		if numLoops == 0 {
			return LoopRegion{}, false, nil
		}
		loopBase := smplHeaderSize
		start := binary.LittleEndian.Uint32(body[loopBase+8 : loopBase+12])
		end := binary.LittleEndian.Uint32(body[loopBase+12 : loopBase+16])
		if end <= start {
			return LoopRegion{}, false, nil
		}
		return LoopRegion{Start: start, End: end}, true, nil
	}
}

// MapSampleRate maps a sample position between sample rates with rounded
// integer arithmetic: out = (in*out_sr + in_sr/2) / in_sr.
func MapSampleRate(in uint32, inSR, outSR int) uint32 {
	if inSR <= 0 {
		return 0
	}
	return uint32((uint64(in)*uint64(outSR) + uint64(inSR)/2) / uint64(inSR))
}

// MapLoopRegion maps a loop region between sample rates, clamping the
// result to [0, bufferLen]. Returns (region, false) for empty/inverted
// ranges after mapping.
func MapLoopRegion(region LoopRegion, inSR, outSR int, bufferLen uint32) (LoopRegion, bool) {
	start := MapSampleRate(region.Start, inSR, outSR)
	end := MapSampleRate(region.End, inSR, outSR)
	if start > bufferLen {
		start = bufferLen
	}
	if end > bufferLen {
		end = bufferLen
	}
	if end <= start {
		return LoopRegion{}, false
	}
	return LoopRegion{Start: start, End: end}, true
}

// Write streams every non-smpl chunk from srcPath to a sibling temp file,
// appends a fresh smpl chunk for region (or omits it if hasLoop is false),
// patches the RIFF size, then atomically renames the temp file over
// srcPath (spec.md §4.3, §6.3, §6 "RIFF safety").
func Write(srcPath string, region LoopRegion, hasLoop bool) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return waverrors.Newf("opening wav for marker write: %w", err).
			Component("markers").Category(waverrors.CategoryFileIO).Context("path", srcPath).Build()
	}
	defer src.Close()

	dir := filepath.Dir(srcPath)
	tmpPath := filepath.Join(dir, ".waves-previewer-tmp-"+uuid.NewString())
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return waverrors.Newf("creating temp file: %w", err).
			Component("markers").Category(waverrors.CategoryFileIO).Context("path", tmpPath).Build()
	}
	defer os.Remove(tmpPath) // no-op after a successful rename

	if err := streamNonSmplChunks(src, tmp, region, hasLoop); err != nil {
		tmp.Close()
		return err
	}

	if err := patchRiffSize(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return waverrors.Newf("closing temp file: %w", err).
			Component("markers").Category(waverrors.CategoryWrite).Build()
	}

	if err := os.Rename(tmpPath, srcPath); err != nil {
		return waverrors.Newf("renaming temp file over target: %w", err).
			Component("markers").Category(waverrors.CategoryWrite).Context("path", srcPath).Build()
	}
	return nil
}

// streamNonSmplChunks re-emits src's chunks byte-for-byte while dropping any
// existing smpl chunk; riff only exposes a reader (NextChunk), so the write
// side walks chunk headers by hand.
func streamNonSmplChunks(src io.Reader, dst io.Writer, region LoopRegion, hasLoop bool) error {
	r := bufio.NewReader(src)
	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return waverrors.Newf("reading riff header: %w", err).
			Component("markers").Category(waverrors.CategoryFormat).Build()
	}
	if _, err := dst.Write(riffHeader[:]); err != nil {
		return waverrors.Newf("writing riff header: %w", err).
			Component("markers").Category(waverrors.CategoryWrite).Build()
	}

	for {
		var chunkHdr [8]byte
		if _, err := io.ReadFull(r, chunkHdr[:]); err != nil {
			break
		}
		chunkID := string(chunkHdr[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHdr[4:8])
		padded := chunkSize
		if padded%2 == 1 {
			padded++
		}

		if chunkID == "smpl" {
			if _, err := io.CopyN(io.Discard, r, int64(padded)); err != nil {
				return waverrors.Newf("skipping smpl chunk: %w", err).
					Component("markers").Category(waverrors.CategoryMarkers).Build()
			}
			continue
		}

		if _, err := dst.Write(chunkHdr[:]); err != nil {
			return waverrors.Newf("writing chunk header: %w", err).
				Component("markers").Category(waverrors.CategoryWrite).Build()
		}
		if _, err := io.CopyN(dst, r, int64(padded)); err != nil {
			return waverrors.Newf("copying chunk body: %w", err).
				Component("markers").Category(waverrors.CategoryWrite).Build()
		}
	}

	if hasLoop {
		if err := writeSmplChunk(dst, region); err != nil {
			return err
		}
	}
	return nil
}

// writeSmplChunk writes the fixed single-loop smpl layout named in
// spec.md §6: 9-u32 header, then one 6-u32 loop record with
// midi_unity_note=60, type=0 (forward), fraction=0, play_count=0.
func writeSmplChunk(dst io.Writer, region LoopRegion) error {
	body := make([]byte, smplHeaderSize+loopRecordSize)
	binary.LittleEndian.PutUint32(body[0:4], 0)             // manufacturer
	binary.LittleEndian.PutUint32(body[4:8], 0)              // product
	binary.LittleEndian.PutUint32(body[8:12], 0)             // sample period
	binary.LittleEndian.PutUint32(body[12:16], midiUnityNote)
	binary.LittleEndian.PutUint32(body[16:20], 0) // midi pitch fraction
	binary.LittleEndian.PutUint32(body[20:24], 0) // smpte format
	binary.LittleEndian.PutUint32(body[24:28], 0) // smpte offset
	binary.LittleEndian.PutUint32(body[28:32], 1) // num_sample_loops
	binary.LittleEndian.PutUint32(body[32:36], 0) // sampler data size

	loopBase := smplHeaderSize
	binary.LittleEndian.PutUint32(body[loopBase:loopBase+4], 0)    // cue point ID
	binary.LittleEndian.PutUint32(body[loopBase+4:loopBase+8], 0)  // type (forward)
	binary.LittleEndian.PutUint32(body[loopBase+8:loopBase+12], region.Start)
	binary.LittleEndian.PutUint32(body[loopBase+12:loopBase+16], region.End)
	binary.LittleEndian.PutUint32(body[loopBase+16:loopBase+20], 0) // fraction
	binary.LittleEndian.PutUint32(body[loopBase+20:loopBase+24], 0) // play count

	var hdr [8]byte
	copy(hdr[0:4], "smpl")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(body)))

	if _, err := dst.Write(hdr[:]); err != nil {
		return waverrors.Newf("writing smpl header: %w", err).
			Component("markers").Category(waverrors.CategoryWrite).Build()
	}
	if _, err := dst.Write(body); err != nil {
		return waverrors.Newf("writing smpl body: %w", err).
			Component("markers").Category(waverrors.CategoryWrite).Build()
	}
	if len(body)%2 == 1 {
		if _, err := dst.Write([]byte{0}); err != nil {
			return waverrors.Newf("writing smpl padding byte: %w", err).
				Component("markers").Category(waverrors.CategoryWrite).Build()
		}
	}
	return nil
}

// patchRiffSize rewrites the RIFF chunk size field (bytes 4:8) to
// file_size - 8 once the full temp file has been written.
func patchRiffSize(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return waverrors.Newf("stat temp file: %w", err).
			Component("markers").Category(waverrors.CategoryFileIO).Build()
	}
	var sizeField [4]byte
	binary.LittleEndian.PutUint32(sizeField[:], uint32(info.Size()-8))
	if _, err := f.WriteAt(sizeField[:], 4); err != nil {
		return waverrors.Newf("patching riff size: %w", err).
			Component("markers").Category(waverrors.CategoryWrite).Build()
	}
	return nil
}
