package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"reflect"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/content"
	"portfolio/app/internal/contract"
)

const (
	jsonContentType = "application/json"
	maxBodyBytes    = 64 << 10
)

type jsonResponse[T any] struct {
	Status int
	Body   T
}

type postInput struct {
	Slug string `path:"slug" doc:"Unique post slug"`
}

// contactInput reads the body itself so that every malformed submission
// reaches the handler and is answered with the validation error shape.
type contactInput struct {
	payload []byte
	readErr error
}

func (i *contactInput) Resolve(ctx huma.Context) []error {
	reader := ctx.BodyReader()
	if reader == nil {
		return nil
	}

	payload, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes+1))
	switch {
	case err != nil:
		i.readErr = err
	case len(payload) > maxBodyBytes:
		i.readErr = &content.ValidationError{Message: contract.MessageBodyTooLarge}
	default:
		i.payload = payload
	}
	return nil
}

var _ huma.Resolver = (*contactInput)(nil)

type healthResponse struct {
	Status int
	Body   struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
}

// apiError is the error body every handler returns. It satisfies
// huma.StatusError so Huma writes it verbatim with its status.
type apiError struct {
	status  int
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string {
	return e.Message
}

func (e *apiError) GetStatus() int {
	return e.status
}

var _ huma.StatusError = (*apiError)(nil)

func (s *Server) registerRoutes() {
	register(s, contract.PostsList, s.listPostsHandler)
	register(s, contract.PostsGet, s.getPostHandler)
	register(s, contract.BeliefsList, s.listBeliefsHandler)
	register(s, contract.NowList, s.listNowUpdatesHandler)
	register(s, contract.ContactCreate, s.createMessageHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      stdhttp.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
	}, s.healthHandler)
}

func register[I, O any](s *Server, route contract.Route, handler func(context.Context, *I) (*O, error)) {
	huma.Register(s.api, s.operation(route), handler)
	s.documentRequestBody(route)
}

// operation documents every status of the route with the schema of its body.
func (s *Server) operation(route contract.Route) huma.Operation {
	success := route.SuccessStatus()
	op := huma.Operation{
		OperationID:   route.OperationID(),
		Method:        route.Method,
		Path:          route.OpenAPIPath(),
		Summary:       route.Summary,
		DefaultStatus: success,
		Responses:     map[string]*huma.Response{},
	}

	registry := s.api.OpenAPI().Components.Schemas
	for _, status := range route.Statuses() {
		response := route.Responses[status]
		documented := &huma.Response{Description: response.Description}
		if status != success {
			documented.Content = map[string]*huma.MediaType{
				jsonContentType: {Schema: registry.Schema(reflect.TypeOf(response.Body), true, "")},
			}
		}
		op.Responses[strconv.Itoa(status)] = documented
	}

	return op
}

// documentRequestBody adds the body schema to the published document only.
// Declaring it on the operation would make Huma read and validate the body
// before the handler, answering failures with its own problem documents.
func (s *Server) documentRequestBody(route contract.Route) {
	if route.Method != stdhttp.MethodPost || route.Input == nil {
		return
	}

	item := s.api.OpenAPI().Paths[route.OpenAPIPath()]
	if item == nil || item.Post == nil {
		return
	}

	registry := s.api.OpenAPI().Components.Schemas
	item.Post.RequestBody = &huma.RequestBody{
		Required: true,
		Content: map[string]*huma.MediaType{
			jsonContentType: {Schema: registry.Schema(reflect.TypeOf(route.Input), true, "")},
		},
	}
}

func (s *Server) listPostsHandler(ctx context.Context, input *contract.PostsQuery) (*jsonResponse[[]content.Post], error) {
	postType, err := input.PostType()
	if err != nil {
		return nil, s.failure(ctx, err, "parsing post type", logrus.Fields{"type": input.Type})
	}

	posts, err := s.store.ListPosts(ctx, postType)
	if err != nil {
		return nil, s.failure(ctx, err, "listing posts", nil)
	}
	if posts == nil {
		posts = []content.Post{}
	}

	return &jsonResponse[[]content.Post]{Status: stdhttp.StatusOK, Body: posts}, nil
}

func (s *Server) getPostHandler(ctx context.Context, input *postInput) (*jsonResponse[content.Post], error) {
	post, err := s.store.GetPostBySlug(ctx, input.Slug)
	if err != nil {
		return nil, s.failure(ctx, err, "fetching post", logrus.Fields{"slug": input.Slug})
	}
	if post == nil {
		return nil, &apiError{status: stdhttp.StatusNotFound, Message: contract.MessagePostNotFound}
	}

	return &jsonResponse[content.Post]{Status: stdhttp.StatusOK, Body: *post}, nil
}

func (s *Server) listBeliefsHandler(ctx context.Context, _ *struct{}) (*jsonResponse[[]content.Belief], error) {
	beliefs, err := s.store.ListBeliefs(ctx)
	if err != nil {
		return nil, s.failure(ctx, err, "listing beliefs", nil)
	}
	if beliefs == nil {
		beliefs = []content.Belief{}
	}

	return &jsonResponse[[]content.Belief]{Status: stdhttp.StatusOK, Body: beliefs}, nil
}

func (s *Server) listNowUpdatesHandler(ctx context.Context, _ *struct{}) (*jsonResponse[[]content.NowUpdate], error) {
	updates, err := s.store.ListNowUpdates(ctx)
	if err != nil {
		return nil, s.failure(ctx, err, "listing now updates", nil)
	}
	if updates == nil {
		updates = []content.NowUpdate{}
	}

	return &jsonResponse[[]content.NowUpdate]{Status: stdhttp.StatusOK, Body: updates}, nil
}

func (s *Server) createMessageHandler(ctx context.Context, input *contactInput) (*jsonResponse[content.Message], error) {
	if input.readErr != nil {
		return nil, s.failure(ctx, input.readErr, "reading contact submission", nil)
	}

	submission, err := contract.ParseBody[content.InsertMessage](input.payload)
	if err != nil {
		return nil, s.failure(ctx, err, "parsing contact submission", nil)
	}

	message, err := s.store.CreateMessage(ctx, submission)
	if err != nil {
		return nil, s.failure(ctx, err, "creating message", nil)
	}

	return &jsonResponse[content.Message]{Status: stdhttp.StatusCreated, Body: *message}, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Storage = "ok"

	if err := s.store.Ping(ctx); err != nil {
		s.recordError(ctx, err, "pinging storage", nil)
		resp.Status = stdhttp.StatusServiceUnavailable
		resp.Body.Status = "degraded"
		resp.Body.Storage = "error"
	}

	return resp, nil
}

// failure maps err onto the response taxonomy. Validation failures become
// 400 with the offending field; everything else is recorded and hidden
// behind a generic 500.
func (s *Server) failure(ctx context.Context, err error, message string, fields logrus.Fields) error {
	var verr *content.ValidationError
	if errors.As(err, &verr) {
		s.logValidation(ctx, verr, message, fields)
		return &apiError{status: stdhttp.StatusBadRequest, Message: verr.Message, Field: verr.Field}
	}

	s.recordError(ctx, err, message, fields)
	return &apiError{status: stdhttp.StatusInternalServerError, Message: contract.MessageInternalError}
}

func (s *Server) logValidation(ctx context.Context, verr *content.ValidationError, message string, fields logrus.Fields) {
	if s.logger == nil {
		return
	}

	entry := s.logger.WithFields(logrus.Fields{"field": verr.Field, "reason": verr.Message})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	entry.Info(message)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	s.logError(ctx, err, message, fields)

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}

func (s *Server) logError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if s.logger == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	entry.Error(message)
}
