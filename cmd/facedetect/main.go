/*
Command facedetect runs the cascade and network face detector over images,
raw YUV frames and a live camera, and stores batch scan results.
*/
package main

func main() {
	Execute()
}
