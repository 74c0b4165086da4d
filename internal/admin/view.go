package admin

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ModelView is the generated CRUD section for one record type. Routes
// follow /<endpoint>/, /<endpoint>/new/, /<endpoint>/edit/?id=N and
// POST /<endpoint>/delete/.
type ModelView[T Model] struct {
	name     string
	endpoint string
	store    Store[T]
	admin    *Admin

	Columns []Column[T]
	Fields  []Field[T]
}

func NewModelView[T Model](name, endpoint string, store Store[T]) *ModelView[T] {
	return &ModelView[T]{name: name, endpoint: endpoint, store: store}
}

func (v *ModelView[T]) Name() string     { return v.name }
func (v *ModelView[T]) Endpoint() string { return v.endpoint }

func (v *ModelView[T]) Register(router fiber.Router, a *Admin) {
	v.admin = a
	base := "/" + v.endpoint
	router.Get(base+"/", a.Gate, v.list)
	router.Get(base+"/new/", a.Gate, v.createForm)
	router.Post(base+"/new/", a.Gate, v.create)
	router.Get(base+"/edit/", a.Gate, v.editForm)
	router.Post(base+"/edit/", a.Gate, v.update)
	router.Post(base+"/delete/", a.Gate, v.delete)
}

type listRow struct {
	ID    uint
	Cells []string
}

func (v *ModelView[T]) list(c *fiber.Ctx) error {
	recs, err := v.store.List()
	if err != nil {
		return err
	}

	headers := make([]string, len(v.Columns))
	for i, col := range v.Columns {
		headers[i] = col.Header
	}
	rows := make([]listRow, len(recs))
	for i := range recs {
		cells := make([]string, len(v.Columns))
		for j, col := range v.Columns {
			cells[j] = col.Value(&recs[i])
		}
		rows[i] = listRow{ID: recs[i].PrimaryKey(), Cells: cells}
	}

	return v.admin.render(c, fiber.StatusOK, "admin/list", fiber.Map{
		"Title":    v.name,
		"Endpoint": v.endpoint,
		"Headers":  headers,
		"Rows":     rows,
		"Count":    len(rows),
	})
}

func (v *ModelView[T]) createForm(c *fiber.Ctx) error {
	rec := new(T)
	return v.renderForm(c, fiber.StatusOK, "new", 0, v.valuesOf(rec), nil)
}

func (v *ModelView[T]) create(c *fiber.Ctx) error {
	rec := new(T)
	submitted := v.submitted(c)

	errs := v.bind(rec, submitted)
	if len(errs) == 0 {
		errs = v.checkUnique(rec, 0)
	}
	if len(errs) == 0 {
		if err := v.store.Create(rec); err != nil {
			if !errors.Is(err, ErrDuplicate) {
				return err
			}
			errs = append(errs, duplicateMessage(v.name))
		}
	}
	if len(errs) > 0 {
		return v.renderForm(c, fiber.StatusUnprocessableEntity, "new", 0, submitted, errs)
	}

	slog.Info("record created", "view", v.endpoint, "id", (*rec).PrimaryKey())
	v.admin.recordChange(v.endpoint, "create")
	return c.Redirect("/"+v.endpoint+"/", fiber.StatusFound)
}

func (v *ModelView[T]) editForm(c *fiber.Ctx) error {
	rec, id, err := v.load(c.Query("id"))
	if err != nil {
		return err
	}
	return v.renderForm(c, fiber.StatusOK, "edit", id, v.valuesOf(rec), nil)
}

func (v *ModelView[T]) update(c *fiber.Ctx) error {
	rec, id, err := v.load(c.Query("id"))
	if err != nil {
		return err
	}
	submitted := v.submitted(c)

	errs := v.bind(rec, submitted)
	if len(errs) == 0 {
		errs = v.checkUnique(rec, id)
	}
	if len(errs) == 0 {
		if err := v.store.Update(rec); err != nil {
			if !errors.Is(err, ErrDuplicate) {
				return err
			}
			errs = append(errs, duplicateMessage(v.name))
		}
	}
	if len(errs) > 0 {
		return v.renderForm(c, fiber.StatusUnprocessableEntity, "edit", id, submitted, errs)
	}

	slog.Info("record updated", "view", v.endpoint, "id", id)
	v.admin.recordChange(v.endpoint, "update")
	return c.Redirect("/"+v.endpoint+"/", fiber.StatusFound)
}

func (v *ModelView[T]) delete(c *fiber.Ctx) error {
	id, err := parseID(c.FormValue("id"))
	if err != nil {
		return err
	}
	if err := v.store.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Record not found")
		}
		return err
	}

	slog.Info("record deleted", "view", v.endpoint, "id", id)
	v.admin.recordChange(v.endpoint, "delete")
	return c.Redirect("/"+v.endpoint+"/", fiber.StatusFound)
}

func (v *ModelView[T]) load(rawID string) (*T, uint, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, 0, err
	}
	rec, err := v.store.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, 0, fiber.NewError(fiber.StatusNotFound, "Record not found")
		}
		return nil, 0, err
	}
	return rec, id, nil
}

// bind validates and applies every submitted field, collecting messages
// rather than stopping at the first one.
func (v *ModelView[T]) bind(rec *T, submitted map[string][]string) []string {
	var errs []string
	for _, f := range v.Fields {
		vals := submitted[f.Name]
		if msg := f.validate(vals); msg != "" {
			errs = append(errs, msg)
			continue
		}
		if err := f.Set(rec, vals); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func (v *ModelView[T]) checkUnique(rec *T, excludeID uint) []string {
	var errs []string
	for _, f := range v.Fields {
		if f.Unique == "" {
			continue
		}
		value := first(f.Get(rec))
		taken, err := v.store.Exists(f.Unique, value, excludeID)
		if err != nil {
			slog.Error("uniqueness check failed", "view", v.endpoint, "field", f.Name, "error", err)
			errs = append(errs, "Could not validate "+f.Label+".")
			continue
		}
		if taken {
			errs = append(errs, f.Label+" already exists.")
		}
	}
	return errs
}

func (v *ModelView[T]) submitted(c *fiber.Ctx) map[string][]string {
	out := make(map[string][]string, len(v.Fields))
	for _, f := range v.Fields {
		out[f.Name] = formValues(c, f.Name)
	}
	return out
}

func (v *ModelView[T]) valuesOf(rec *T) map[string][]string {
	out := make(map[string][]string, len(v.Fields))
	for _, f := range v.Fields {
		out[f.Name] = f.Get(rec)
	}
	return out
}

type formOption struct {
	Value    string
	Label    string
	Selected bool
}

type formField struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Value    string
	Checked  bool
	Multiple bool
	Options  []formOption
}

func (v *ModelView[T]) renderForm(c *fiber.Ctx, status int, mode string, id uint, values map[string][]string, errs []string) error {
	fields := make([]formField, 0, len(v.Fields))
	for _, f := range v.Fields {
		vals := values[f.Name]
		ff := formField{
			Name:     f.Name,
			Label:    f.Label,
			Type:     string(f.Type),
			Required: f.Required,
			Multiple: f.Type == FieldMultiSelect,
		}
		switch f.Type {
		case FieldPassword:
			// never echoed back
		case FieldCheckbox:
			ff.Checked = first(vals) != ""
		default:
			ff.Value = first(vals)
		}
		if f.Options != nil {
			opts, err := f.Options()
			if err != nil {
				return err
			}
			for _, o := range opts {
				ff.Options = append(ff.Options, formOption{
					Value:    o.Value,
					Label:    o.Label,
					Selected: contains(vals, o.Value),
				})
			}
		}
		fields = append(fields, ff)
	}

	action := "/" + v.endpoint + "/new/"
	title := "Create " + v.name
	if mode == "edit" {
		action = "/" + v.endpoint + "/edit/?id=" + strconv.FormatUint(uint64(id), 10)
		title = "Edit " + v.name
	}

	return v.admin.render(c, status, "admin/form", fiber.Map{
		"Title":    title,
		"Endpoint": v.endpoint,
		"Action":   action,
		"Fields":   fields,
		"Errors":   errs,
	})
}

func formValues(c *fiber.Ctx, name string) []string {
	raw := c.Request().PostArgs().PeekMulti(name)
	if len(raw) == 0 {
		if form, err := c.MultipartForm(); err == nil {
			return form.Value[name]
		}
		return nil
	}
	vals := make([]string, len(raw))
	for i, b := range raw {
		vals[i] = string(b)
	}
	return vals
}

func parseID(raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Record not found")
	}
	return uint(n), nil
}

func duplicateMessage(name string) string {
	return "A " + strings.ToLower(name) + " with these values already exists."
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
