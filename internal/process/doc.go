// Package process terminates headless browser process trees that outlive
// their launcher, such as renderer and GPU helpers.
package process
