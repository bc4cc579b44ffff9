// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/saferwall/movebc/log"
)

const requestIDHeader = "X-Request-Id"

// withRequestID stamps every response with a fresh request ID and logs the
// request as it arrives, before the wrapped handler runs, the way a reverse
// proxy would tag a trace.
func withRequestID(logger *log.Helper, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(requestIDHeader, id)
		logger.Infof("%s %s %s request_id=%s", r.Method, r.URL.Path, r.RemoteAddr, id)
		next.ServeHTTP(w, r)
	})
}
