// Package client is the data-access layer used by front ends and the CLI to
// talk to the directory REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

const (
	defaultTimeout    = 30 * time.Second
	headerContentType = "Content-Type"
)

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// NetworkError means the request never got an answer
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is a transport failure rather than a server answer
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client calls the REST API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent("api_client") }
}

// WithToken starts the client with a bearer token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:3001/api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token sent with every request. An empty token
// sends none.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Venues

func (c *Client) ListVenues(ctx context.Context, filter entities.VenueFilter) ([]entities.Venue, error) {
	var venues []entities.Venue
	err := c.doJSON(ctx, http.MethodGet, "/venues", filterQuery(filter), nil, &venues)
	return venues, err
}

func (c *Client) GetVenue(ctx context.Context, id int64) (*entities.Venue, error) {
	var venue entities.Venue
	if err := c.doJSON(ctx, http.MethodGet, venuePath(id), nil, nil, &venue); err != nil {
		return nil, err
	}
	return &venue, nil
}

func (c *Client) CreateVenue(ctx context.Context, req ports.CreateVenueRequest) (*entities.Venue, error) {
	var venue entities.Venue
	if err := c.doJSON(ctx, http.MethodPost, "/venues", nil, req, &venue); err != nil {
		return nil, err
	}
	return &venue, nil
}

func (c *Client) UpdateVenue(ctx context.Context, id int64, req ports.UpdateVenueRequest) (*entities.Venue, error) {
	var venue entities.Venue
	if err := c.doJSON(ctx, http.MethodPut, venuePath(id), nil, req, &venue); err != nil {
		return nil, err
	}
	return &venue, nil
}

func (c *Client) DeleteVenue(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, venuePath(id), nil, nil, nil)
}

// Rooms

func (c *Client) ListRooms(ctx context.Context, venueID int64, filter entities.VenueFilter) ([]entities.Room, error) {
	var rooms []entities.Room
	err := c.doJSON(ctx, http.MethodGet, venuePath(venueID)+"/rooms", filterQuery(filter), nil, &rooms)
	return rooms, err
}

func (c *Client) AddRoom(ctx context.Context, venueID int64, req ports.CreateRoomRequest) (*entities.Room, error) {
	var room entities.Room
	if err := c.doJSON(ctx, http.MethodPost, venuePath(venueID)+"/rooms", nil, req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, venueID, roomID int64, req ports.UpdateRoomRequest) (*entities.Room, error) {
	var room entities.Room
	if err := c.doJSON(ctx, http.MethodPut, roomPath(venueID, roomID), nil, req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, venueID, roomID int64) error {
	return c.doJSON(ctx, http.MethodDelete, roomPath(venueID, roomID), nil, nil, nil)
}

// Amenities returns the most used amenity tags; top <= 0 returns all
func (c *Client) Amenities(ctx context.Context, top int) ([]entities.AmenityCount, error) {
	var q url.Values
	if top > 0 {
		q = url.Values{"top": {strconv.Itoa(top)}}
	}
	var counts []entities.AmenityCount
	err := c.doJSON(ctx, http.MethodGet, "/amenities", q, nil, &counts)
	return counts, err
}

// Settings

func (c *Client) GetSettings(ctx context.Context) (entities.Settings, error) {
	settings := entities.Settings{}
	err := c.doJSON(ctx, http.MethodGet, "/settings", nil, nil, &settings)
	return settings, err
}

func (c *Client) UpdateSettings(ctx context.Context, patch entities.Settings) (entities.Settings, error) {
	settings := entities.Settings{}
	err := c.doJSON(ctx, http.MethodPut, "/settings", nil, patch, &settings)
	return settings, err
}

// Auth and users

// Login authenticates and, on success, keeps the returned token for later calls
func (c *Client) Login(ctx context.Context, username, password string) (*ports.LoginResponse, error) {
	var resp ports.LoginResponse
	req := ports.LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

func (c *Client) CheckAuth(ctx context.Context) (*ports.AuthCheckResponse, error) {
	var resp ports.AuthCheckResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/check", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := c.doJSON(ctx, http.MethodGet, "/users", nil, nil, &users)
	return users, err
}

func (c *Client) CreateUser(ctx context.Context, req ports.CreateUserRequest) (*entities.User, error) {
	var user entities.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, req ports.UpdateUserRequest) (*entities.User, error) {
	var user entities.User
	if err := c.doJSON(ctx, http.MethodPut, "/users/"+strconv.FormatInt(id, 10), nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// Images

// UploadImage sends one picture to the single upload endpoint
func (c *Client) UploadImage(ctx context.Context, file ports.ImageFile) (*entities.Image, error) {
	body, contentType, err := multipartBody("image", []ports.ImageFile{file})
	if err != nil {
		return nil, err
	}
	var img entities.Image
	if err := c.do(ctx, http.MethodPost, "/upload", nil, body, contentType, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// UploadImages sends a batch of pictures in one request
func (c *Client) UploadImages(ctx context.Context, files []ports.ImageFile) ([]entities.Image, error) {
	body, contentType, err := multipartBody("images", files)
	if err != nil {
		return nil, err
	}
	var images []entities.Image
	err = c.do(ctx, http.MethodPost, "/upload-multiple", nil, body, contentType, &images)
	return images, err
}

func (c *Client) DeleteImage(ctx context.Context, publicID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/images/"+escapePublicID(publicID), nil, nil, nil)
}

// Import and export

// Export downloads the whole directory as a table
func (c *Client) Export(ctx context.Context, format ports.TableFormat) (*ports.ExportFile, error) {
	return c.download(ctx, "/venues/export", format)
}

// Template downloads an empty import table with one example row
func (c *Client) Template(ctx context.Context, format ports.TableFormat) (*ports.ExportFile, error) {
	return c.download(ctx, "/venues/export/template", format)
}

// Import uploads a CSV or XLSX table. The format is taken from filename's extension.
func (c *Client) Import(ctx context.Context, filename string, r io.Reader) (*ports.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	body, contentType, err := multipartBody("file", []ports.ImageFile{{
		Filename:    filename,
		ContentType: "application/octet-stream",
		Data:        data,
	}})
	if err != nil {
		return nil, err
	}
	var result ports.ImportResult
	if err := c.do(ctx, http.MethodPost, "/venues/import", nil, body, contentType, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks that the server answers its readiness probe
func (c *Client) Ping(ctx context.Context) error {
	root := strings.TrimSuffix(c.baseURL, "/api")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root+"/ready", nil)
	if err != nil {
		return err
	}
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}
	return nil
}

func (c *Client) download(ctx context.Context, path string, format ports.TableFormat) (*ports.ExportFile, error) {
	var q url.Values
	if format != "" {
		q = url.Values{"format": {string(format)}}
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, q, nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read " + path, Err: err}
	}
	file := &ports.ExportFile{
		ContentType: resp.Header.Get(headerContentType),
		Data:        data,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		file.Filename = params["filename"]
	}
	return file, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, q, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, q, body, contentType)
	if err != nil {
		return err
	}
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs the request and turns transport failures into NetworkError.
// A cancelled or expired context is returned as is.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WithError(err).Warnw("API unreachable", "method", req.Method, "url", req.URL.Redacted())
		return nil, &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	c.logger.Debugw("API call", "method", req.Method, "url", req.URL.Redacted(), "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body ports.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Detail = body.Error
	}
	return apiErr
}

func filterQuery(f entities.VenueFilter) url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("q", s)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	for _, a := range f.Amenities {
		q.Add("amenities", a)
	}
	return q
}

func multipartBody(field string, files []ports.ImageFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Filename))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set(headerContentType, ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("build multipart body: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("build multipart body: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func venuePath(id int64) string {
	return "/venues/" + strconv.FormatInt(id, 10)
}

func roomPath(venueID, roomID int64) string {
	return venuePath(venueID) + "/rooms/" + strconv.FormatInt(roomID, 10)
}

func escapePublicID(publicID string) string {
	parts := strings.Split(strings.Trim(publicID, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
