package control

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/graphql-go/graphql"
)

// newParamsType builds an object type and a "params" mutation for a flat struct of
// scalars, keyed by its yaml tags. get returns a pointer to a copy of the current value;
// set installs a modified copy.
func newParamsType(name string, get func() interface{}, set func(interface{}) error) (*graphql.Object, *graphql.Field) {
	fields := graphql.Fields{}
	inputFields := graphql.InputObjectConfigFieldMap{}

	typ := reflect.TypeOf(get()).Elem()
	tagMap := newYAMLTagFieldMap(typ)

	resolver := func(field int) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			v := reflect.ValueOf(p.Source)
			if v.Kind() != reflect.Ptr || v.Elem().Type() != typ {
				return nil, fmt.Errorf("control: unexpected %s source %T", name, p.Source)
			}
			return v.Elem().Field(field).Interface(), nil
		}
	}

	for tag, i := range tagMap {
		var gt *graphql.Scalar
		switch typ.Field(i).Type.Kind() {
		case reflect.Bool:
			gt = graphql.Boolean
		case reflect.Float32, reflect.Float64:
			gt = graphql.Float
		case reflect.String:
			gt = graphql.String
		case reflect.Int, reflect.Int8, reflect.Int32, reflect.Int64:
			gt = graphql.Int
		default:
			panic(fmt.Sprint("unsupported type ", typ.Field(i).Type))
		}
		fields[tag] = &graphql.Field{Type: gt, Resolve: resolver(i)}
		inputFields[tag] = &graphql.InputObjectFieldConfig{Type: gt}
	}

	paramType := graphql.NewObject(graphql.ObjectConfig{
		Name:   name,
		Fields: fields,
	})
	inputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   "input" + name,
		Fields: inputFields,
	})
	mut := &graphql.Field{
		Type: paramType,
		Args: graphql.FieldConfigArgument{
			"params": &graphql.ArgumentConfig{Type: graphql.NewNonNull(inputType)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			args, _ := p.Args["params"].(map[string]interface{})
			cur := get()
			elem := reflect.ValueOf(cur).Elem()
			for tag, val := range args {
				i, ok := tagMap[tag]
				if !ok || val == nil {
					continue
				}
				f := elem.Field(i)
				f.Set(reflect.ValueOf(val).Convert(f.Type()))
			}
			if err := set(cur); err != nil {
				return nil, err
			}
			return cur, nil
		},
	}
	return paramType, mut
}

func newYAMLTagFieldMap(typ reflect.Type) map[string]int {
	m := make(map[string]int)
	for i := 0; i < typ.NumField(); i++ {
		if tag := yamlTag(typ.Field(i)); tag != "" && tag != "-" {
			m[tag] = i
		}
	}
	return m
}

func yamlTag(f reflect.StructField) string {
	return strings.Split(f.Tag.Get("yaml"), ",")[0]
}
