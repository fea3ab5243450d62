// Copyright (C) 2024 The Eaglesync Authors.
//
// This file is part of Eaglesync.
//
// Eaglesync is free software: you can redistribute it and/or modify it under
// the terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Eaglesync is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Eaglesync.  If not, see <https://www.gnu.org/licenses/>.

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/log"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

const DirectiveMaxAge = "max-age"

var (
	HeaderUserAgent    = http.CanonicalHeaderKey("User-Agent")
	HeaderCacheControl = http.CanonicalHeaderKey("Cache-Control")
	HeaderContentType  = http.CanonicalHeaderKey("Content-Type")
)

// RemoteError is a non-success response from a remote service.
type RemoteError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http error %d: %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("http error %d: %s", e.StatusCode, e.URL)
}

type Client struct {
	client      *http.Client
	useCache    bool
	userAgent   string
	cache       httpcache.Cache
	maxAge      time.Duration
	interval    time.Duration
	attempts    int
	backoff     time.Duration
	mu          sync.Mutex
	lastRequest map[string]time.Time
}

func NewClient(config *config.ClientConfig) *Client {
	c := Client{lastRequest: make(map[string]time.Time)}
	c.userAgent = config.UserAgent
	c.useCache = config.UseCache
	c.interval = config.Interval
	c.attempts = config.Attempts
	if c.attempts <= 0 {
		c.attempts = 1
	}
	c.backoff = config.Backoff
	if c.useCache {
		c.maxAge = config.MaxAge
		c.cache = diskcache.New(config.CacheDir)
		transport := httpcache.NewTransport(c.cache)
		c.client = transport.Client()
		log.Printf("using cache dir %s\n", config.CacheDir)
	} else {
		c.client = &http.Client{}
	}
	return &c
}

// RateLimit waits until the configured interval has passed since the last
// request to host.
func (c *Client) RateLimit(host string) {
	if c.interval <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.lastRequest[host]; ok {
		if d := time.Since(last); d < c.interval {
			time.Sleep(c.interval - d)
		}
	}
	c.lastRequest[host] = time.Now()
}

func (c *Client) do(method string, headers map[string]string, urlStr string, body []byte) (*http.Response, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u.String(), reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set(HeaderUserAgent, c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	throttle := true
	if c.useCache && method == http.MethodGet {
		maxAge := int(c.maxAge.Seconds())
		if maxAge > 0 {
			req.Header.Set(HeaderCacheControl, fmt.Sprintf("%s=%d", DirectiveMaxAge, maxAge))
		}
		// peek into the cache, if there's something there don't slow down
		cachedResp, err := httpcache.CachedResponse(c.cache, req)
		if err != nil {
			log.Printf("cache error %s\n", err)
		}
		if cachedResp != nil {
			throttle = false
		}
	}
	if throttle {
		c.RateLimit(u.Host)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("client.Do err %s\n", err)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return resp, &RemoteError{StatusCode: resp.StatusCode, URL: u.String()}
	}

	return resp, nil
}

func (c *Client) doWithRetry(method string, headers map[string]string, url string, body []byte) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt < c.attempts; attempt++ {
		resp, err = c.do(method, headers, url, body)
		if err == nil || resp == nil {
			// success
			// or error with no response
			break
		}
		if resp.StatusCode < http.StatusInternalServerError &&
			resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		// server error, try again with backoff
		if attempt+1 < c.attempts {
			resp.Body.Close()
			log.Printf("got err %d: retry backoff attempt %d of %d\n",
				resp.StatusCode,
				attempt+1,
				c.attempts)
			time.Sleep(c.backoff)
		}
	}

	if err != nil && resp != nil {
		resp.Body.Close()
	}
	return resp, err
}

func (c *Client) GetJson(url string, result interface{}) error {
	return c.GetJsonWith(nil, url, result)
}

func (c *Client) GetJsonWith(headers map[string]string, url string, result interface{}) error {
	resp, err := c.doWithRetry(http.MethodGet, headers, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	decoder := json.NewDecoder(resp.Body)
	if err = decoder.Decode(result); err != nil {
		return err
	}
	return nil
}

// PostJson sends data as a JSON body and decodes the JSON response into
// result, which may be nil.
func (c *Client) PostJson(url string, data interface{}, result interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	headers := map[string]string{HeaderContentType: "application/json"}
	resp, err := c.doWithRetry(http.MethodPost, headers, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if result == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// Download saves the content at url to the file dst, replacing any
// existing file.
func (c *Client) Download(url, dst string) error {
	req, err := grab.NewRequest(dst, url)
	if err != nil {
		return err
	}
	req.NoResume = true
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	if u := req.URL(); u != nil {
		c.RateLimit(u.Host)
	}
	g := grab.NewClient()
	g.UserAgent = c.userAgent
	resp := g.Do(req)
	if err := resp.Err(); err != nil {
		if resp.HTTPResponse != nil && resp.HTTPResponse.StatusCode != http.StatusOK {
			return &RemoteError{StatusCode: resp.HTTPResponse.StatusCode, URL: url}
		}
		return err
	}
	log.Printf("downloaded %s (%d bytes)\n", resp.Filename, resp.BytesComplete())
	return nil
}
