// Package fetch turns reference URLs into article text and finds brand mentions
// for the monitoring mode of the analyze stage.
package fetch
