// Copyright (c) Jeff Berkowitz 2021, 2022. All rights reserved.

// Package cart talks to a flash cartridge programmer on a serial port.
//
// The programmer is a small microcontroller board that resets when
// the port is opened, so Open waits for it before returning. After
// that all I/O is done from the calling goroutine: the serial port
// offers a read timeout, so no read ever blocks indefinitely and no
// reader goroutine is needed.
package cart

import (
	"fmt"
	"syscall"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

const resetDelay = 3 * time.Second
const responseDelay = 50 * time.Millisecond
const retryDelay = 1 * time.Second

const DefaultBaud = 115200 // must match the programmer firmware

// Port is the part of a serial port the link uses. serial.Port
// implements it.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Link is a connection to the programmer.
type Link struct {
	port          Port
	responseDelay time.Duration
	retryDelay    time.Duration
}

type NoResponseError time.Duration

func (nre NoResponseError) Error() string {
	return fmt.Sprintf("read from programmer: no response after %v", time.Duration(nre))
}

// Open the serial device and wait out the programmer's reset.
func Open(device string, baud int) (*Link, error) {
	mode := &serial.Mode{BaudRate: baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", device, err)
	}

	// Otherwise the bootloader eats the first few bytes, taking them
	// for the start of a firmware upload.
	glog.Infof("%s: open at %d baud, waiting %v for programmer reset", device, baud, resetDelay)
	time.Sleep(resetDelay)
	return New(port), nil
}

// New makes a link on a port that is already open and ready.
func New(port Port) *Link {
	return &Link{port: port, responseDelay: responseDelay, retryDelay: retryDelay}
}

func (link *Link) Close() error {
	if link.port == nil {
		return fmt.Errorf("internal error: close(): port not open")
	}
	if err := link.port.Close(); err != nil {
		glog.Warningf("close serial port: %s", err)
		return err
	}
	glog.Info("serial port closed")
	link.port = nil
	return nil
}

// Read a byte. Errors at this level mean the protocol has broken down
// or is about to.
func (link *Link) readByte(timeout time.Duration) (byte, error) {
	b := make([]byte, 1)
	var n int
	var err error

	if err = link.port.SetReadTimeout(timeout); err != nil {
		return 0, err
	}
	// The loop is only for EINTR, which the Go runtime's preemption
	// signals cause regularly.
	for {
		n, err = link.port.Read(b)
		if !isRetryableSyscallError(err) {
			break
		}
		if n != 0 {
			panic("bytes returned despite EINTR")
		}
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, NoResponseError(timeout)
	}
	glog.V(3).Infof("readByte: 0x%02X", b[0])
	return b[0], nil
}

func (link *Link) write(data []byte) error {
	glog.V(3).Infof("write: % X", data)
	for len(data) > 0 {
		n, err := link.port.Write(data)
		if isRetryableSyscallError(err) {
			if n != 0 {
				panic("bytes written despite EINTR")
			}
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("write consumed 0 bytes")
		}
		data = data[n:]
	}
	return nil
}

func isRetryableSyscallError(err error) bool {
	errno, ok := err.(syscall.Errno)
	return ok && errno == syscall.EINTR
}
