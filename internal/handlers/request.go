package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/retailops/backoffice/internal/models"
	"github.com/retailops/backoffice/internal/services"
)

const (
	maxBodyBytes = 1_048_576
	dateLayout   = "2006-01-02"
)

// decodeBody reads a single JSON object into dst and writes the error
// response itself when it fails. An empty body is accepted when
// allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &t, nil
}

// dateRangeQuery reads the optional from/to query parameters.
func dateRangeQuery(r *http.Request) (models.DateRange, error) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		return models.DateRange{}, err
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		return models.DateRange{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return models.DateRange{}, errors.New("to must not be before from")
	}
	return models.DateRange{From: from, To: to}, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
