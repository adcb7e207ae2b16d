package resources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/jrsteele09/bluewater-portal/client"
	"github.com/jrsteele09/bluewater-portal/users"
)

// Portal groups the typed repositories and the custom actions.
type Portal struct {
	client *client.Client

	Bookings   *Repo[Booking]
	Families   *Repo[Family]
	Profiles   *Repo[users.Profile]
	Rooms      *Repo[Room]
	Events     *Repo[Event]
	Tasks      *Repo[Task]
	Tags       *Repo[Tag]
	Checklists *Repo[Checklist]
	Pictures   *Repo[Picture]
}

func New(c *client.Client) *Portal {
	return &Portal{
		client:     c,
		Bookings:   NewRepo[Booking](c, Bookings),
		Families:   NewRepo[Family](c, Families),
		Profiles:   NewRepo[users.Profile](c, Profiles),
		Rooms:      NewRepo[Room](c, Rooms),
		Events:     NewRepo[Event](c, Events),
		Tasks:      NewRepo[Task](c, Tasks),
		Tags:       NewRepo[Tag](c, Tags),
		Checklists: NewRepo[Checklist](c, Checklists),
		Pictures:   NewRepo[Picture](c, Pictures),
	}
}

// FamilyResource is the families collection an identity may list: admins
// see every family, everyone else only their own.
func FamilyResource(isAdmin bool) string {
	if isAdmin {
		return Families
	}
	return MyFamiliesPath
}

// Me returns the caller's profile.
func (p *Portal) Me(ctx context.Context) (*users.Profile, error) {
	out := &users.Profile{}
	if _, err := p.client.Do(ctx, client.Request{Method: http.MethodGet, Path: Profiles + "/me"}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyFamilies lists the families the caller belongs to.
func (p *Portal) MyFamilies(ctx context.Context) ([]Family, error) {
	families := []Family{}
	if _, err := p.client.Do(ctx, client.Request{Method: http.MethodGet, Path: MyFamiliesPath}, &families); err != nil {
		return nil, err
	}
	return families, nil
}

// VisibleFamilies lists families according to perms.
func (p *Portal) VisibleFamilies(ctx context.Context, perms users.Permissions) ([]Family, error) {
	if !perms.Has(users.RoleAdmin) {
		return p.MyFamilies(ctx)
	}
	families, _, err := p.Families.List(ctx, client.ListParams{})
	return families, err
}

// ToggleAdmin flips a profile's admin flag. Only admins may call it.
func (p *Portal) ToggleAdmin(ctx context.Context, profileID int) (*users.Profile, error) {
	out := &users.Profile{}
	path := ToggleAdminPath + "/" + strconv.Itoa(profileID)
	if _, err := p.client.Do(ctx, client.Request{Method: http.MethodPatch, Path: path}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadPicture sends content as the "file" part of a multipart form.
func (p *Portal) UploadPicture(ctx context.Context, filename string, content io.Reader) (*Picture, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("[Portal.UploadPicture] %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("[Portal.UploadPicture] reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("[Portal.UploadPicture] %w", err)
	}

	out := &Picture{}
	_, err = p.client.Do(ctx, client.Request{
		Method:      http.MethodPost,
		Path:        Pictures,
		RawBody:     bytes.NewReader(body.Bytes()),
		ContentType: mw.FormDataContentType(),
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
