package rpc

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/rpc"
)

var tooManyResults = regexp.MustCompile(`(?i)query returned more than \d+ results|block range|too many (blocks|logs|results)`)

// IsTooManyResultsError reports whether err is a provider rejecting an eth_getLogs range as too large.
func IsTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && tooManyResults.MatchString(fmt.Sprintf("%v", dataErr.ErrorData())) {
		return true
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == -32005 { //nolint:mnd
		return true
	}

	return tooManyResults.MatchString(err.Error())
}

// errorType buckets an error for the rpc error metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case IsTooManyResultsError(err):
		return "too_many_results"
	case retryableError(err):
		return "transient"
	default:
		return "other"
	}
}
