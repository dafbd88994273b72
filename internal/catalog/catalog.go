// Package catalog holds the read-only reference data the timetable engine
// consumes: courses, professors, and rooms.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/horario/internal/period"
)

// ErrInvalidCatalog is returned when catalog data fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Kind distinguishes mandatory from elective courses.
type Kind string

const (
	KindMandatory Kind = "mandatory"
	KindElective  Kind = "elective"
)

// Course is a curriculum course.
type Course struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Cycle       int    `yaml:"cycle" validate:"min=1,max=10"`
	WeeklyHours int    `yaml:"weekly_hours" validate:"min=1,max=40"`
	Kind        Kind   `yaml:"kind" validate:"oneof=mandatory elective"`
}

// IsMandatory returns true for mandatory courses.
func (c Course) IsMandatory() bool {
	return c.Kind == KindMandatory
}

// Professor is a teaching professor.
type Professor struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

// Room is a physical room.
type Room struct {
	ID       string `yaml:"id" validate:"required"`
	Code     string `yaml:"code" validate:"required"`
	Capacity int    `yaml:"capacity" validate:"min=1"`
	Type     string `yaml:"type"`
}

// Source is the read-only view of the catalog used by the engine.
type Source interface {
	Course(id string) (Course, bool)
	Professor(id string) (Professor, bool)
	Room(id string) (Room, bool)
	CoursesForPeriod(p period.Period) []Course
	Rooms() []Room
}

// Catalog is an in-memory catalog loaded from YAML.
type Catalog struct {
	Courses    []Course    `yaml:"courses" validate:"dive"`
	Professors []Professor `yaml:"professors" validate:"dive"`
	RoomList   []Room      `yaml:"rooms" validate:"dive"`

	courses    map[string]Course
	professors map[string]Professor
	rooms      map[string]Room
}

// New builds an indexed catalog and validates it.
func New(courses []Course, professors []Professor, rooms []Room) (*Catalog, error) {
	c := &Catalog{Courses: courses, Professors: professors, RoomList: rooms}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index()
	return c, nil
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return New(c.Courses, c.Professors, c.RoomList)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml field names so errors match the file the user wrote.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and duplicate IDs.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if id, ok := firstDuplicate(c.Courses, func(x Course) string { return x.ID }); ok {
		return fmt.Errorf("%w: duplicate course id %q", ErrInvalidCatalog, id)
	}
	if id, ok := firstDuplicate(c.Professors, func(x Professor) string { return x.ID }); ok {
		return fmt.Errorf("%w: duplicate professor id %q", ErrInvalidCatalog, id)
	}
	if id, ok := firstDuplicate(c.RoomList, func(x Room) string { return x.ID }); ok {
		return fmt.Errorf("%w: duplicate room id %q", ErrInvalidCatalog, id)
	}
	return nil
}

func firstDuplicate[T any](items []T, key func(T) string) (string, bool) {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := key(it)
		if seen[k] {
			return k, true
		}
		seen[k] = true
	}
	return "", false
}

func (c *Catalog) index() {
	c.courses = make(map[string]Course, len(c.Courses))
	for _, x := range c.Courses {
		c.courses[x.ID] = x
	}
	c.professors = make(map[string]Professor, len(c.Professors))
	for _, x := range c.Professors {
		c.professors[x.ID] = x
	}
	c.rooms = make(map[string]Room, len(c.RoomList))
	for _, x := range c.RoomList {
		c.rooms[x.ID] = x
	}
}

// Course looks up a course by ID.
func (c *Catalog) Course(id string) (Course, bool) {
	x, ok := c.courses[id]
	return x, ok
}

// Professor looks up a professor by ID.
func (c *Catalog) Professor(id string) (Professor, bool) {
	x, ok := c.professors[id]
	return x, ok
}

// Room looks up a room by ID.
func (c *Catalog) Room(id string) (Room, bool) {
	x, ok := c.rooms[id]
	return x, ok
}

// Rooms returns all rooms sorted by capacity, then ID.
func (c *Catalog) Rooms() []Room {
	rooms := append([]Room(nil), c.RoomList...)
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Capacity != rooms[j].Capacity {
			return rooms[i].Capacity < rooms[j].Capacity
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms
}

// CoursesForPeriod returns the courses whose cycle is active in p, sorted
// by cycle then ID.
func (c *Catalog) CoursesForPeriod(p period.Period) []Course {
	var result []Course
	for _, x := range c.Courses {
		if p.IsActiveCycle(x.Cycle) {
			result = append(result, x)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Cycle != result[j].Cycle {
			return result[i].Cycle < result[j].Cycle
		}
		return result[i].ID < result[j].ID
	})
	return result
}
