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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client speaks to a Handler.  It is safe for concurrent use.
type Client struct {
	base   string
	user   string
	pass   string
	auth   bool
	client *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base:   base,
		client: &http.Client{},
	}
}

// SetAuth supplies basic-auth credentials for every request.
func (c *Client) SetAuth(user, pass string) {
	c.user = user
	c.pass = pass
	c.auth = true
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	if c.auth {
		req.SetBasicAuth(c.user, c.pass)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		e := &Error{Code: res.StatusCode}
		if json.Unmarshal(body, e) != nil || e.Message == "" {
			e.Message = fmt.Sprintf("HTTP %d", res.StatusCode)
		}
		return e
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Services returns the declared service names.
func (c *Client) Services(ctx context.Context) ([]string, error) {
	var v []string
	if err := c.do(ctx, "GET", "/services", &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Service returns one service's info and evaluated configuration.
func (c *Client) Service(ctx context.Context, name string) (*ServiceInfo, error) {
	v := &ServiceInfo{}
	path := "/services/" + url.PathEscape(name)
	if err := c.do(ctx, "GET", path, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ServiceConfig returns one service's evaluated configuration.
func (c *Client) ServiceConfig(ctx context.Context, name string) (map[string]interface{}, error) {
	var v map[string]interface{}
	path := "/services/" + url.PathEscape(name) + "/config"
	if err := c.do(ctx, "GET", path, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Group returns the supervised group's status.
func (c *Client) Group(ctx context.Context) (*GroupInfo, error) {
	v := &GroupInfo{}
	if err := c.do(ctx, "GET", "/group", v); err != nil {
		return nil, err
	}
	return v, nil
}

// StopGroup requests a graceful group stop.
func (c *Client) StopGroup(ctx context.Context) error {
	return c.do(ctx, "POST", "/group/stop", nil)
}

// Log returns retained log records newer than last.  A positive wait
// long-polls server side until the log changes or wait elapses.
func (c *Client) Log(ctx context.Context, last int64, wait time.Duration) (*LogChunk, error) {
	v := &LogChunk{}
	path := "/log?last=" + strconv.FormatInt(last, 10)
	if wait > 0 {
		path += "&wait=" + strconv.Itoa(int(wait/time.Second))
	}
	if err := c.do(ctx, "GET", path, v); err != nil {
		return nil, err
	}
	return v, nil
}
