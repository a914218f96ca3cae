package http

import (
	"bytes"
	"encoding/json"
	ers "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang/gddo/httputil/header"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/utils/errors"
	rpccode "google.golang.org/genproto/googleapis/rpc/code"
	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

type requestEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

type errorBody struct {
	Status  rpccode.Code `json:"status"`
	Message string       `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// DecodeJSONBody decodes the "data" field of a callable function request into dst and validates it.
// Based on https://www.alexedwards.net/blog/how-to-properly-parse-a-json-request-body
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Header.Get("Content-Type") == "" {
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: "Content-Type header is not application/json"}
	}
	value, _ := header.ParseValueAndParams(r.Header, "Content-Type")
	if value != "application/json" {
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: "Content-Type header is not application/json"}
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	var envelope requestEnvelope
	dec := json.NewDecoder(r.Body)
	if err := translateDecodeError(dec.Decode(&envelope)); err != nil {
		return err
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: "Request body must only contain a single JSON object"}
	}

	if len(envelope.Data) == 0 {
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: "Request body must be wrapped in 'data' field"}
	}

	inner := json.NewDecoder(bytes.NewReader(envelope.Data))
	inner.DisallowUnknownFields()
	if err := translateDecodeError(inner.Decode(dst)); err != nil {
		return err
	}

	if err := validate.Struct(dst); err != nil {
		msg := fmt.Sprintf("Validation of the request has failed: %v", err.Error())
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: msg}
	}

	return nil
}

func translateDecodeError(err error) error {
	if err == nil {
		return nil
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError

	switch {
	case ers.As(err, &syntaxError):
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: msg}

	case ers.Is(err, io.ErrUnexpectedEOF):
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: "Request body contains badly-formed JSON"}

	case ers.As(err, &unmarshalTypeError):
		msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: msg}

	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		msg := fmt.Sprintf("Request body contains unknown field %s", fieldName)
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: msg}

	case ers.Is(err, io.EOF):
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: "Request body must not be empty"}

	case err.Error() == "http: request body too large":
		return &errors.MalformedRequestError{Status: rpccode.Code_INVALID_ARGUMENT, Msg: "Request body must not be larger than 1MB"}

	default:
		return err
	}
}

// DecodeJSONOrReportError decodes the request and sends the error response when it fails. Returns whether the
// handler should continue.
func DecodeJSONOrReportError(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := DecodeJSONBody(w, r, dst); err != nil {
		logging.FromContext(r.Context()).Debugf("Could not decode request: %v", err)
		SendErrorResponse(w, r, err)
		return false
	}
	return true
}

// SendResponse sends data wrapped in the "data" field.
func SendResponse(w http.ResponseWriter, r *http.Request, data interface{}) {
	send(w, r, responseEnvelope{Data: data})
}

// SendEmptyResponse sends an empty "data" object.
func SendEmptyResponse(w http.ResponseWriter, r *http.Request) {
	send(w, r, responseEnvelope{Data: struct{}{}})
}

// SendErrorResponse sends the error with its code. Errors without a code are INTERNAL.
func SendErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	send(w, r, errorEnvelope{Error: errorBody{Status: errors.CodeOf(err), Message: err.Error()}})
}

func send(w http.ResponseWriter, r *http.Request, body interface{}) {
	payload, err := json.Marshal(body)
	if err != nil {
		logging.FromContext(r.Context()).Errorf("Could not serialize response: %v", err)
		http.Error(w, "Could not serialize response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		logging.FromContext(r.Context()).Warnf("Could not write response: %v", err)
	}
}
