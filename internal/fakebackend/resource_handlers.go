package fakebackend

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/bluewater-portal/internal/errors"
	"github.com/jrsteele09/bluewater-portal/users"
)

// TotalCountHeader carries the number of records matching a list query.
const TotalCountHeader = "X-Total-Count"

const maxUploadSize = 10 << 20

// reserved query parameters; every other key is a filter.
var listParams = map[string]bool{"page": true, "page_size": true, "sort_by": true, "order": true}

func parseListQuery(r *http.Request) (listQuery, error) {
	values := r.URL.Query()
	q := listQuery{
		SortBy:  values.Get("sort_by"),
		Desc:    strings.EqualFold(values.Get("order"), "desc"),
		Filters: map[string][]string{},
	}

	var err error
	if v := values.Get("page"); v != "" {
		if q.Page, err = strconv.Atoi(v); err != nil || q.Page < 1 {
			return q, fmt.Errorf("page must be a positive integer")
		}
	}
	if v := values.Get("page_size"); v != "" {
		if q.PageSize, err = strconv.Atoi(v); err != nil || q.PageSize < 1 {
			return q, fmt.Errorf("page_size must be a positive integer")
		}
	}
	for key, vals := range values {
		if !listParams[key] {
			q.Filters[key] = vals
		}
	}
	return q, nil
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

func (b *Backend) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, errors.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	b.logger.Err(err).Msg("store error")
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}

func (b *Backend) listHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseListQuery(r)
		if err != nil {
			writeValidation(w, validationItem{Loc: []string{"query"}, Msg: err.Error()})
			return
		}
		items, total, err := b.records.list(name, q)
		if err != nil {
			b.writeStoreError(w, err)
			return
		}
		w.Header().Set(TotalCountHeader, strconv.Itoa(total))
		writeJSON(w, http.StatusOK, items)
	}
}

func (b *Backend) getHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not Found")
			return
		}
		rec, err := b.records.find(name, id)
		if err != nil {
			b.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (b *Backend) createHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := Record{}
		if err := decodeBody(r, &body); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		delete(body, "id")
		rec, err := b.records.create(name, body)
		if err != nil {
			b.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (b *Backend) updateHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not Found")
			return
		}
		patch := Record{}
		if err := decodeBody(r, &patch); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		rec, err := b.records.update(name, id, patch)
		if err != nil {
			b.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (b *Backend) deleteHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not Found")
			return
		}
		if err := b.records.delete(name, id); err != nil {
			b.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// myFamiliesHandler lists the families the caller is a member of.
func (b *Backend) myFamiliesHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	all, _, err := b.records.list("families", listQuery{})
	if err != nil {
		b.writeStoreError(w, err)
		return
	}

	mine := make([]Record, 0)
	for _, family := range all {
		if hasMember(family, user.ID) {
			mine = append(mine, family)
		}
	}
	w.Header().Set(TotalCountHeader, strconv.Itoa(len(mine)))
	writeJSON(w, http.StatusOK, mine)
}

func hasMember(family Record, profileID int) bool {
	members, _ := family["members"].([]any)
	for _, m := range members {
		member, _ := m.(map[string]any)
		profile, _ := member["profile"].(map[string]any)
		if idOf(profile) == profileID {
			return true
		}
	}
	return false
}

// uploadPictureHandler stores the multipart "file" part's metadata. The
// content itself is discarded.
func (b *Backend) uploadPictureHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeDetail(w, http.StatusBadRequest, "Expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Expected multipart form with a file field")
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeDetail(w, http.StatusBadRequest, "Could not read upload")
		return
	}

	rec, err := b.records.create("pictures", Record{"filename": header.Filename})
	if err != nil {
		b.writeStoreError(w, err)
		return
	}
	rec, err = b.records.update("pictures", idOf(rec), Record{"url": fmt.Sprintf("/pictures/%d/file", idOf(rec))})
	if err != nil {
		b.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (b *Backend) meHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()).Profile)
}

func (b *Backend) listProfilesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := b.users.List()
	if err != nil {
		b.writeStoreError(w, err)
		return
	}
	profiles := make([]users.Profile, 0, len(list))
	for _, u := range list {
		profiles = append(profiles, u.Profile)
	}
	w.Header().Set(TotalCountHeader, strconv.Itoa(len(profiles)))
	writeJSON(w, http.StatusOK, profiles)
}

func (b *Backend) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	user, err := b.users.GetByID(id)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Profile)
}

func (b *Backend) toggleAdminHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	user, err := b.users.GetByID(id)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err := b.users.SetAdmin(id, !user.IsAdmin); err != nil {
		b.writeStoreError(w, err)
		return
	}
	user, _ = b.users.GetByID(id)
	writeJSON(w, http.StatusOK, user.Profile)
}
