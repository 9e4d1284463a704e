/*
go-facedetect finds faces in camera frames using an OpenCV cascade
classifier, optionally verifying each candidate with a small convolutional
network described in XML.

The package exposes a two call boundary intended for camera pipelines and
the C library in cmd/libfacedetect:

	h := facedetect.LoadFaceDetector("haarcascade_frontalface.xml", "face.xml")
	n := facedetect.FindFaces(width, height, yuv, rgba)

where yuv is an NV21 frame and rgba is a width*height buffer of 0xAARRGGBB
pixels onto which face outlines are drawn.  Both return a sentinel (0 and -1)
on failure with the cause available from LastError.

Programs that manage their own detectors should use a Session directly, or a
Registry when detectors are referred to by handle.  A Pool of sessions
supports analysing many images in parallel.

See the command line tool in cmd/facedetect for example usage.
*/
package facedetect
