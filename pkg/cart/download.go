// Copyright (c) Jeff Berkowitz 2021, 2023. All rights reserved.

package cart

import (
	"fmt"

	"github.com/golang/glog"
)

const DefaultPageSize = 128
const MaxPageSize = 255 // the count is one byte

const addressTop = 0x1000000

// Download writes image to the cartridge starting at address base,
// one page at a time. progress, if not nil, is called after each
// page with the number of bytes sent so far.
func (link *Link) Download(image []byte, base uint32, pageSize int, progress func(done, total int)) error {
	if pageSize < 1 || pageSize > MaxPageSize {
		return fmt.Errorf("page size %d outside [1, %d]", pageSize, MaxPageSize)
	}
	if uint64(base)+uint64(len(image)) > addressTop {
		return fmt.Errorf("image of %d bytes at $%06X passes $FFFFFF", len(image), base)
	}
	if err := link.establishConnection(); err != nil {
		return err
	}
	glog.Infof("downloading %d bytes at $%06X", len(image), base)

	for done := 0; done < len(image); done += pageSize {
		page := image[done:]
		if len(page) > pageSize {
			page = page[:pageSize]
		}
		if err := link.writePage(base+uint32(done), page); err != nil {
			return fmt.Errorf("page at $%06X: %w", base+uint32(done), err)
		}
		if progress != nil {
			progress(done+len(page), len(image))
		}
	}
	glog.Info("download complete")
	return nil
}
