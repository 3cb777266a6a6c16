// Copyright (c) Jeff Berkowitz 2021, 2022. All rights reserved.

package cart

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A port that answers from a script and records what was written.
type fakePort struct {
	responses []byte
	written   []byte
	eintr     int // fail this many reads with EINTR first
	closed    bool
}

func (fp *fakePort) Read(p []byte) (int, error) {
	if fp.eintr > 0 {
		fp.eintr--
		return 0, syscall.EINTR
	}
	if len(fp.responses) == 0 {
		return 0, nil
	}
	n := copy(p, fp.responses)
	fp.responses = fp.responses[n:]
	return n, nil
}

func (fp *fakePort) Write(p []byte) (int, error) {
	fp.written = append(fp.written, p...)
	return len(p), nil
}

func (fp *fakePort) SetReadTimeout(t time.Duration) error {
	return nil
}

func (fp *fakePort) Close() error {
	fp.closed = true
	return nil
}

func testLink(fp *fakePort) *Link {
	link := New(fp)
	link.retryDelay = 0
	return link
}

func connectResponses() []byte {
	return []byte{Ack(CmdSync), Ack(CmdGetVer), ProtocolVersion}
}

func TestDownload1(t *testing.T) {
	fp := &fakePort{responses: connectResponses()}
	for i := 0; i < 2; i++ {
		fp.responses = append(fp.responses, Ack(CmdSetAddr), Ack(CmdWritePage))
	}
	link := testLink(fp)

	var calls [][2]int
	image := []byte{1, 2, 3, 4, 5}
	err := link.Download(image, 0xFF0000, 3, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)

	want := []byte{
		CmdSync, CmdGetVer,
		CmdSetAddr, 0xFF, 0x00, 0x00, CmdWritePage, 3, 1, 2, 3,
		CmdSetAddr, 0xFF, 0x00, 0x03, CmdWritePage, 2, 4, 5,
	}
	assert.Equal(t, want, fp.written)
	assert.Equal(t, [][2]int{{3, 5}, {5, 5}}, calls)
	assert.Empty(t, fp.responses)

	require.NoError(t, link.Close())
	assert.True(t, fp.closed)
	assert.Error(t, link.Close())
}

func TestDownload1Fail(t *testing.T) {
	fp := &fakePort{responses: append(connectResponses(), Ack(CmdSetAddr), 0x55)}
	err := testLink(fp).Download([]byte{1, 2}, 0xFF0000, DefaultPageSize, nil)
	var nak *NakError
	require.True(t, errors.As(err, &nak), err)
	assert.Equal(t, byte(CmdWritePage), nak.Command)
	assert.Equal(t, byte(0x55), nak.Response)
}

func TestDownload2Fail(t *testing.T) {
	link := testLink(&fakePort{})
	assert.Error(t, link.Download([]byte{1}, 0xFF0000, 0, nil))
	assert.Error(t, link.Download([]byte{1}, 0xFF0000, MaxPageSize+1, nil))
	assert.Error(t, link.Download([]byte{1, 2}, 0xFFFFFF, 1, nil))
}

func TestSync1(t *testing.T) {
	fp := &fakePort{}
	err := testLink(fp).sync()
	assert.EqualError(t, err, "failed to synchronize")
	assert.Equal(t, []byte{CmdSync, CmdSync, CmdSync}, fp.written)
}

func TestSync2(t *testing.T) {
	// The first sync is answered with garbage, the second is acked.
	fp := &fakePort{responses: []byte{0x00, Ack(CmdSync), Ack(CmdSync)}}
	require.NoError(t, testLink(fp).sync())
	assert.Equal(t, []byte{CmdSync, CmdSync}, fp.written)
	assert.Empty(t, fp.responses)
}

func TestVersionFail(t *testing.T) {
	fp := &fakePort{responses: []byte{Ack(CmdSync), Ack(CmdGetVer), ProtocolVersion + 1}}
	err := testLink(fp).establishConnection()
	var ve *VersionError
	require.True(t, errors.As(err, &ve), err)
	assert.Equal(t, byte(ProtocolVersion+1), ve.Cart)
}

func TestReadByte(t *testing.T) {
	fp := &fakePort{responses: []byte{0x42}, eintr: 2}
	link := testLink(fp)
	b, err := link.readByte(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b)

	_, err = link.readByte(time.Millisecond)
	assert.Equal(t, NoResponseError(time.Millisecond), err)
}
