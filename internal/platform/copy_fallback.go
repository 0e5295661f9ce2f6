//go:build !linux

package platform

// CopyFile copies via buffered read/write on platforms without a kernel
// copy primitive we target.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	return copyReadWrite(params)
}
