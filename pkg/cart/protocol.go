// Copyright (c) Jeff Berkowitz 2021, 2022. All rights reserved.

package cart

// Byte protocol spoken with the programmer.
//
// A command is a command byte followed by its argument bytes. The
// programmer answers with the complement of the command byte, or with
// anything else to refuse it. GetVer's answer is followed by the
// version byte. WritePage's answer is followed, from the host, by the
// page data, which is not answered.

import (
	"fmt"
	"time"

	"github.com/golang/glog"
)

const ProtocolVersion = 1

const (
	CmdSync      = 0xE0 // no arguments
	CmdGetVer    = 0xE1 // no arguments, answered with the version
	CmdSetAddr   = 0xE2 // 3 address bytes, high first
	CmdWritePage = 0xE3 // length, then the page after the ack
)

const syncTries = 3

// Ack is the response to cmd that means success.
func Ack(cmd byte) byte {
	return ^cmd
}

// NakError is returned when the programmer refuses a command.
type NakError struct {
	Command  byte
	Response byte
}

func (n *NakError) Error() string {
	return fmt.Sprintf("command 0x%X refused: response 0x%X", n.Command, n.Response)
}

// VersionError is returned when the programmer speaks another version
// of the protocol.
type VersionError struct {
	Host, Cart byte
}

func (v *VersionError) Error() string {
	return fmt.Sprintf("protocol version mismatch: host %d, programmer %d", v.Host, v.Cart)
}

// Sync with the programmer and check that it speaks our protocol.
func (link *Link) establishConnection() error {
	if err := link.sync(); err != nil {
		return err
	}
	v, err := link.version()
	if err != nil {
		return err
	}
	if v != ProtocolVersion {
		return &VersionError{ProtocolVersion, v}
	}
	return nil
}

// Send syncs slowly until one is acked, then consume the late acks of
// the earlier ones.
func (link *Link) sync() error {
	for sent := 1; sent <= syncTries; sent++ {
		err := link.command(CmdSync)
		if err == nil {
			for ; sent > 1; sent-- {
				link.readByte(link.responseDelay)
			}
			return nil
		}
		glog.Warningf("sync %d failed: %s", sent, err)
		time.Sleep(link.retryDelay)
	}
	return fmt.Errorf("failed to synchronize")
}

func (link *Link) version() (byte, error) {
	if err := link.command(CmdGetVer); err != nil {
		return 0, err
	}
	return link.readByte(link.responseDelay)
}

// Send a command with its arguments and wait for the ack.
func (link *Link) command(cmd byte, args ...byte) error {
	if err := link.write(append([]byte{cmd}, args...)); err != nil {
		return err
	}
	b, err := link.readByte(link.responseDelay)
	if err != nil {
		return err
	}
	if b != Ack(cmd) {
		return &NakError{cmd, b}
	}
	return nil
}

// Write one page of at most MaxPageSize bytes at addr.
func (link *Link) writePage(addr uint32, page []byte) error {
	if err := link.command(CmdSetAddr, byte(addr>>16), byte(addr>>8), byte(addr)); err != nil {
		return err
	}
	if err := link.command(CmdWritePage, byte(len(page))); err != nil {
		return err
	}
	return link.write(page)
}
