// Package theme resolves the client's display theme from the
// authentication state. Unauthenticated clients always get the light
// default regardless of any device-cached value; authenticated ones
// trust the remote preference with the cache as interim fallback.
package theme
