package platform

import (
	"io"
	"os"
)

const readWriteBufSize = 128 * 1024

// copyReadWrite copies via buffered userspace read/write. Works everywhere.
func copyReadWrite(params CopyFileParams) (CopyResult, error) {
	src, err := os.Open(params.SrcPath)
	if err != nil {
		return CopyResult{}, err
	}
	defer src.Close()

	buf := make([]byte, readWriteBufSize)
	n, err := io.CopyBuffer(params.DstFd, src, buf)
	return CopyResult{BytesWritten: n, Method: ReadWrite}, err
}
