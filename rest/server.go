// Copyright 2025 The Servitor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"servitor"
	"servitor/group"
)

// Handler exposes a Controller and its Supervisor over HTTP.
type Handler struct {
	ctl *servitor.Controller
	sup *group.Supervisor
	r   *mux.Router

	authUser string
	authHash []byte
}

func NewHandler(ctl *servitor.Controller, sup *group.Supervisor) *Handler {
	r := mux.NewRouter()
	h := &Handler{ctl: ctl, sup: sup, r: r}
	r.HandleFunc("/services", h.guard(h.listServices)).Methods("GET")
	r.HandleFunc("/services/{service}", h.guard(h.getService)).Methods("GET")
	r.HandleFunc("/services/{service}/config", h.guard(h.getConfig)).Methods("GET")
	r.HandleFunc("/group", h.guard(h.getGroup)).Methods("GET")
	r.HandleFunc("/group/stop", h.guard(h.stopGroup)).Methods("POST")
	r.HandleFunc("/log", h.guard(h.getLog)).Methods("GET")
	return h
}

// SetAuth enables basic authentication.  The password is supplied as a
// bcrypt hash; plaintext never lives in the handler.
func (h *Handler) SetAuth(user string, hash []byte) {
	h.authUser = user
	h.authHash = hash
}

func (h *Handler) guard(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.authHash != nil {
			user, pass, got := r.BasicAuth()
			if !got || user != h.authUser ||
				bcrypt.CompareHashAndPassword(h.authHash, []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="servitor"`)
				h.writeError(w, &Error{http.StatusUnauthorized, "Unauthorized"})
				return
			}
		}
		fn(w, r)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, e error) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJson(w http.ResponseWriter, v interface{}) {
	if b, e := json.Marshal(v); e != nil {
		h.internalError(w, e)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.Write(b)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, e *Error) {
	if b, err := json.Marshal(e); err != nil {
		h.internalError(w, err)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.WriteHeader(e.Code)
		w.Write(b)
	}
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	svcs := h.ctl.Services()
	l := make([]string, 0, len(svcs))
	for _, svc := range svcs {
		l = append(l, svc.Name())
	}
	h.writeJson(w, l)
}

func (h *Handler) findService(name string) (*servitor.Service, *Error) {
	for _, svc := range h.ctl.Services() {
		if svc.Name() == name {
			return svc, nil
		}
	}
	return nil, &Error{http.StatusNotFound, "Service not found"}
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["service"]
	if svc, e := h.findService(name); e != nil {
		h.writeError(w, e)
	} else {
		info := &ServiceInfo{
			Name:     svc.Name(),
			Runnable: svc.Runnable(),
			Keys:     svc.Evaluator().Keys(),
			Config:   jsonSafe(svc.Flatten()),
		}
		h.writeJson(w, info)
	}
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["service"]
	if svc, e := h.findService(name); e != nil {
		h.writeError(w, e)
	} else {
		h.writeJson(w, jsonSafe(svc.Flatten()))
	}
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	info := &GroupInfo{
		Name:        h.sup.Name(),
		Stopping:    h.sup.Stopping(),
		FailureRate: h.sup.FailureRate(),
		Threshold:   h.ctl.Policy().Threshold(),
		Serial:      h.sup.Serial(),
		Workers:     h.sup.Workers(),
	}
	h.writeJson(w, info)
}

func (h *Handler) stopGroup(w http.ResponseWriter, r *http.Request) {
	// Stop blocks for up to the grace period; don't hold the request.
	go h.ctl.Stop(true)
	h.writeJson(w, ok)
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	var last int64
	if v := r.URL.Query().Get("last"); v != "" {
		last, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("wait"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			h.sup.WatchLog(last, time.Duration(secs)*time.Second)
		}
	}
	recs, id := h.sup.Log(last)
	h.writeJson(w, &LogChunk{ID: id, Records: recs})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.r.ServeHTTP(w, req)
}

// jsonSafe replaces config values that cannot marshal (service classes,
// run hooks) with their type name, so a projection is always servable.
func jsonSafe(m map[string]interface{}) map[string]interface{} {
	rv := make(map[string]interface{}, len(m))
	for k, v := range m {
		if _, err := json.Marshal(v); err != nil {
			rv[k] = fmt.Sprintf("<%T>", v)
			continue
		}
		rv[k] = v
	}
	return rv
}
