package shm

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

const (
	testWidth  = 4
	testHeight = 2
)

func header(w, h int, seq uint64, tsMicros int64) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[offMagic:], Magic[:])
	binary.LittleEndian.PutUint32(buf[offVersion:], 1)
	binary.LittleEndian.PutUint64(buf[offSequence:], seq)
	binary.LittleEndian.PutUint64(buf[offTimestamp:], uint64(tsMicros))
	binary.LittleEndian.PutUint32(buf[offWidth:], uint32(w))
	binary.LittleEndian.PutUint32(buf[offHeight:], uint32(h))
	return buf
}

func writeBuffer(t *testing.T, dir, name string, w, h int, fill byte) string {
	t.Helper()
	pix := make([]byte, w*h*entity.FrameChannels)
	for i := range pix {
		pix[i] = fill
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, append(header(w, h, 1, 0), pix...), 0o600))
	return path
}

func publish(t *testing.T, path string, seq uint64, tsMicros int64) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer f.Close()

	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(tsMicros))
	_, err = f.WriteAt(b[:], offTimestamp)
	require.NoError(t, err)
	binary.LittleEndian.PutUint64(b[:], seq)
	_, err = f.WriteAt(b[:], offSequence)
	require.NoError(t, err)
}

func testConfig(dir, name string) Config {
	return Config{
		Dir:          dir,
		Name:         name,
		Width:        testWidth,
		Height:       testHeight,
		PollInterval: time.Millisecond,
	}
}

func TestOpen_CopyAndTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := writeBuffer(t, dir, "video0.bgr", testWidth, testHeight, 7)

	src, err := Open(testConfig(dir, "/video0.bgr"))
	require.NoError(t, err)
	defer src.Close()

	ts, err := src.Timestamp()
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	publish(t, path, 2, 1_700_000_000_000_000)
	require.NoError(t, src.Lock())
	frame := entity.NewFrame(testWidth, testHeight)
	require.NoError(t, src.CopyInto(frame))
	ts, err = src.Timestamp()
	require.NoError(t, err)
	require.NoError(t, src.Unlock())

	assert.Equal(t, [entity.FrameChannels]byte{7, 7, 7, 7}, frame.At(3, 1))
	assert.Equal(t, int64(1_700_000_000_000_000), ts.UnixMicro())
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	writeBuffer(t, dir, "small", 2, 2, 0)
	writeBuffer(t, dir, "swapped", testHeight, testWidth, 0)

	bad := filepath.Join(dir, "magic")
	data := append(header(testWidth, testHeight, 0, 0), make([]byte, testWidth*testHeight*entity.FrameChannels)...)
	copy(data, "XXXX")
	require.NoError(t, os.WriteFile(bad, data, 0o600))

	for _, name := range []string{"missing", "small", "swapped", "magic"} {
		t.Run(name, func(t *testing.T) {
			_, err := Open(testConfig(dir, name))
			require.Error(t, err)
		})
	}
}

func TestWait_NewSequence(t *testing.T) {
	dir := t.TempDir()
	path := writeBuffer(t, dir, "cam", testWidth, testHeight, 0)

	src, err := Open(testConfig(dir, "cam"))
	require.NoError(t, err)
	defer src.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return
		}
		defer f.Close()
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], 2)
		f.WriteAt(b[:], offSequence)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, src.Wait(ctx))
}

func TestWait_Timeout(t *testing.T) {
	dir := t.TempDir()
	writeBuffer(t, dir, "cam", testWidth, testHeight, 0)

	cfg := testConfig(dir, "cam")
	cfg.Timeout = 10 * time.Millisecond
	src, err := Open(cfg)
	require.NoError(t, err)
	defer src.Close()

	err = src.Wait(context.Background())
	require.ErrorIs(t, err, port.ErrFrameTimeout)
}

func TestWait_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeBuffer(t, dir, "cam", testWidth, testHeight, 0)

	src, err := Open(testConfig(dir, "cam"))
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, src.Wait(ctx), context.Canceled)
}

func TestClose(t *testing.T) {
	dir := t.TempDir()
	writeBuffer(t, dir, "cam", testWidth, testHeight, 0)

	src, err := Open(testConfig(dir, "cam"))
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	require.ErrorIs(t, src.Wait(context.Background()), port.ErrFrameSourceClosed)
	require.ErrorIs(t, src.Lock(), port.ErrFrameSourceClosed)
	require.ErrorIs(t, src.CopyInto(entity.NewFrame(testWidth, testHeight)), port.ErrFrameSourceClosed)
}

func TestCopyInto_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	writeBuffer(t, dir, "cam", testWidth, testHeight, 0)

	src, err := Open(testConfig(dir, "cam"))
	require.NoError(t, err)
	defer src.Close()

	require.Error(t, src.CopyInto(entity.NewFrame(1, 1)))
}
