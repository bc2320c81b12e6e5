// Package upstream fetches historical draws from the official lottery site.
//
// Client reads the JSON draw endpoint; PageClient parses the HTML result page
// and serves as the fallback; Chain tries them in order. Every source reports
// a draw that does not exist (yet) as ErrNoData. Schedule computes the latest
// draw number that should already be published without any network call.
package upstream
