package control

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/peragwin/autopilot/session"
)

var (
	// ErrUploadsDisabled is returned by uploadReference when no upload directory is set.
	ErrUploadsDisabled = errors.New("control: reference uploads are disabled")
	// ErrOutsideUploadDir rejects upload paths that are absolute or leave the directory.
	ErrOutsideUploadDir = errors.New("control: path is outside the upload directory")
)

// ViewParams are the display settings that can be changed while running.
type ViewParams struct {
	WindowSize int `yaml:"windowSize"`
}

func (s *Server) initGraphql() error {
	statusOf := func(p graphql.ResolveParams) session.Status {
		st, _ := p.Source.(session.Status)
		return st
	}
	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StatusType",
		Fields: graphql.Fields{
			"state": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return statusOf(p).State.String(), nil
				},
			},
			"progress": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return statusOf(p).Progress, nil
				},
			},
			"frameRate": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return statusOf(p).FrameRate, nil
				},
			},
			"frames": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return int(statusOf(p).Frames), nil
				},
			},
			"reference": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if ref := statusOf(p).Reference; ref != "" {
						return ref, nil
					}
					return nil, nil
				},
			},
			"previewing": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return statusOf(p).Previewing, nil
				},
			},
			"running": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return statusOf(p).Running, nil
				},
			},
			"lastError": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := statusOf(p).LastError; err != nil {
						return err.Error(), nil
					}
					return nil, nil
				},
			},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PositionType",
		Fields: graphql.Fields{
			"otw": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return s.sess.Tracker().OTW(), nil
				},
			},
			"playback": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if pos, ok := s.sess.Tracker().Playback(); ok {
						return pos, nil
					}
					return nil, nil
				},
			},
		},
	})

	viewType, viewMut := newParamsType("ViewType",
		func() interface{} {
			return &ViewParams{WindowSize: s.layers.WindowSize()}
		},
		func(v interface{}) error {
			p := v.(*ViewParams)
			if p.WindowSize < 0 {
				return fmt.Errorf("control: negative window size %d", p.WindowSize)
			}
			s.layers.SetWindowSize(p.WindowSize)
			return nil
		})

	stateResult := func(st session.State, err error) (interface{}, error) {
		if err != nil {
			return nil, err
		}
		return st.String(), nil
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootQuery",
		Fields: graphql.Fields{
			"status": &graphql.Field{
				Type: statusType,
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return s.sess.Status(), nil
				},
			},
			"position": &graphql.Field{
				Type: positionType,
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return struct{}{}, nil
				},
			},
			"annotations": &graphql.Field{
				Type: graphql.NewList(graphql.Float),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return []float64(s.sess.Annotations()), nil
				},
			},
			"view": &graphql.Field{
				Type: viewType,
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return &ViewParams{WindowSize: s.layers.WindowSize()}, nil
				},
			},
		},
	})

	rootMut := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootMut",
		Fields: graphql.Fields{
			"toggle": &graphql.Field{
				Type: graphql.String,
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return stateResult(s.sess.Toggle())
				},
			},
			"reset": &graphql.Field{
				Type: graphql.String,
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					if err := s.sess.Reset(); err != nil {
						return nil, err
					}
					return s.sess.Tracker().State().String(), nil
				},
			},
			"uploadReference": &graphql.Field{
				Type: graphql.Int,
				Args: graphql.FieldConfigArgument{
					"paths": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw, _ := p.Args["paths"].([]interface{})
					paths, err := s.uploadPaths(raw)
					if err != nil {
						return nil, err
					}
					return s.sess.UploadReference(paths)
				},
			},
			"uploadAnnotations": &graphql.Field{
				Type: graphql.NewList(graphql.Float),
				Args: graphql.FieldConfigArgument{
					"text": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					text, _ := p.Args["text"].(string)
					if err := s.sess.UploadAnnotations(strings.NewReader(text)); err != nil {
						return nil, err
					}
					return []float64(s.sess.Annotations()), nil
				},
			},
			"preview": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					// playback outlives the request
					return s.sess.TogglePreview(context.WithoutCancel(p.Context))
				},
			},
			"view": viewMut,
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    rootQuery,
		Mutation: rootMut,
	})
	if err != nil {
		return err
	}
	s.schema = schema
	return nil
}

// uploadPaths resolves client paths inside the upload directory. Absolute paths and paths
// that climb out of the directory are rejected.
func (s *Server) uploadPaths(raw []interface{}) ([]string, error) {
	if s.uploads == "" {
		return nil, ErrUploadsDisabled
	}
	paths := make([]string, 0, len(raw))
	for _, r := range raw {
		p, _ := r.(string)
		if !filepath.IsLocal(p) {
			return nil, fmt.Errorf("%w: %q", ErrOutsideUploadDir, p)
		}
		paths = append(paths, filepath.Join(s.uploads, p))
	}
	return paths, nil
}

// Query runs a graphql request against the session.
func (s *Server) Query(ctx context.Context, query string, vars map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})
}
