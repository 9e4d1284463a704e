/*
Command libfacedetect builds the detector as a C shared library for camera
applications, eg: Android via JNI.

	go build -buildmode=c-shared -o libfacedetect.so ./cmd/libfacedetect

Exported functions:

	int64_t facedetect_load(const char* cascade, const char* cnn);
	int32_t facedetect_find_faces(int32_t w, int32_t h,
	                              const uint8_t* yuv, int32_t yuv_len,
	                              uint32_t* rgba, int32_t rgba_len);
	int32_t facedetect_release(int64_t handle);
	int32_t facedetect_version(void);
	char*   facedetect_last_error(void);

facedetect_load returns 0 and facedetect_find_faces returns -1 on failure,
facedetect_last_error then describes the cause.  Its result must be freed
by the caller with free().
*/
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	facedetect "github.com/swdee/go-facedetect"
)

// errNullBuffer is reported when a frame or pixel buffer is missing
var errNullBuffer = errors.New("null or empty buffer")

//export facedetect_load
func facedetect_load(cascade, cnn *C.char) C.int64_t {

	if cascade == nil {
		return C.int64_t(facedetect.LoadFaceDetector("", ""))
	}

	cnnPath := ""

	if cnn != nil {
		cnnPath = C.GoString(cnn)
	}

	return C.int64_t(facedetect.LoadFaceDetector(C.GoString(cascade), cnnPath))
}

//export facedetect_find_faces
func facedetect_find_faces(width, height C.int32_t, yuv *C.uint8_t, yuvLen C.int32_t,
	rgba *C.uint32_t, rgbaLen C.int32_t) C.int32_t {

	yuvBuf, rgbaBuf, err := buffers(yuv, yuvLen, rgba, rgbaLen)

	if err != nil {
		return C.int32_t(rejectFrame(err))
	}

	return C.int32_t(facedetect.FindFaces(int32(width), int32(height), yuvBuf, rgbaBuf))
}

// buffers wraps the caller's memory as Go slices without copying
func buffers(yuv *C.uint8_t, yuvLen C.int32_t, rgba *C.uint32_t, rgbaLen C.int32_t) ([]byte, []uint32, error) {

	if err := checkBuffers(yuv == nil, rgba == nil, int32(yuvLen), int32(rgbaLen)); err != nil {
		return nil, nil, err
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(yuv)), int(yuvLen)),
		unsafe.Slice((*uint32)(unsafe.Pointer(rgba)), int(rgbaLen)),
		nil
}

func checkBuffers(yuvNull, rgbaNull bool, yuvLen, rgbaLen int32) error {

	switch {
	case yuvNull || yuvLen <= 0:
		return fmt.Errorf("yuv: %w", errNullBuffer)
	case rgbaNull || rgbaLen <= 0:
		return fmt.Errorf("rgba: %w", errNullBuffer)
	}

	return nil
}

// rejectFrame records err as the analysis failure cause for
// facedetect_last_error
func rejectFrame(err error) int32 {
	facedetect.SetLastError(fmt.Errorf("%w: %w", facedetect.ErrAnalysis, err))
	return facedetect.AnalysisFailed
}

//export facedetect_release
func facedetect_release(handle C.int64_t) C.int32_t {

	if facedetect.ReleaseFaceDetector(int64(handle)) {
		return 1
	}

	return 0
}

//export facedetect_version
func facedetect_version() C.int32_t {
	return C.int32_t(facedetect.APIVersion)
}

//export facedetect_last_error
func facedetect_last_error() *C.char {

	err := facedetect.LastError()

	if err == nil {
		return nil
	}

	return C.CString(err.Error())
}

func main() {}
