package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// maxBodyBytes bounds the amount of request body read when decoding a JSON
// body into a params field.
const maxBodyBytes = 1 << 20 // 1MB

// defaultFieldLimit is the maximum byte length accepted for a single decoded
// field value unless overridden with a maxLength tag.
const defaultFieldLimit = 16 * 1024

// Unmarshal populates dst (a non-nil pointer to a struct) from the request.
//
// Supported struct tags:
//   - `query:"name"`  — r.URL.Query()
//   - `header:"name"` — r.Header
//   - `cookie:"name"` — r.Cookie(name)
//   - `body:"json"`   — the whole request body decoded as JSON into the field
//   - `maxLength:"n"` — maximum byte length for the field value (0 = no limit)
//
// Fields without a recognized tag are left untouched. Missing parameters
// leave the field at its zero value. String and int fields are supported for
// the scalar sources; the body field may be any JSON-decodable type.
func Unmarshal(r *http.Request, dst any) error {
	if r == nil {
		return Error(http.StatusInternalServerError, "", errors.New("endpoint: decode: nil request"))
	}
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return Error(http.StatusInternalServerError, "", errors.New("endpoint: decode: dst must be a non-nil pointer"))
	}
	root := v.Elem()
	if root.Kind() != reflect.Struct {
		return Error(http.StatusInternalServerError, "", errors.New("endpoint: decode: dst must point to a struct"))
	}

	rt := root.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := root.Field(i)
		if !fv.CanSet() {
			continue
		}

		if sf.Tag.Get("body") == "json" {
			if err := decodeJSONBody(r, fv.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		raw, ok := lookupValue(r, sf)
		if !ok {
			continue
		}
		limit := defaultFieldLimit
		if tag, exists := sf.Tag.Lookup("maxLength"); exists {
			n, err := strconv.Atoi(strings.TrimSpace(tag))
			if err != nil || n < 0 {
				return Error(http.StatusInternalServerError, "", fmt.Errorf("endpoint: decode: bad maxLength tag on %s", sf.Name))
			}
			limit = n
		}
		if limit > 0 && len(raw) > limit {
			return Error(http.StatusBadRequest, fmt.Sprintf("parameter %s too long", paramName(sf)), nil)
		}
		if err := setScalar(fv, sf, raw); err != nil {
			return err
		}
	}
	return nil
}

func lookupValue(r *http.Request, sf reflect.StructField) (string, bool) {
	if name, exists := sf.Tag.Lookup("query"); exists && name != "" && name != "-" {
		if r.URL != nil {
			q := r.URL.Query()
			if vs, ok := q[name]; ok && len(vs) > 0 {
				return vs[0], true
			}
		}
		return "", false
	}
	if name, exists := sf.Tag.Lookup("header"); exists && name != "" && name != "-" {
		if v := r.Header.Get(name); v != "" {
			return v, true
		}
		return "", false
	}
	if name, exists := sf.Tag.Lookup("cookie"); exists && name != "" && name != "-" {
		if c, err := r.Cookie(name); err == nil {
			return c.Value, true
		}
		return "", false
	}
	return "", false
}

func setScalar(fv reflect.Value, sf reflect.StructField, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Error(http.StatusBadRequest, fmt.Sprintf("parameter %s must be an integer", paramName(sf)), err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Error(http.StatusBadRequest, fmt.Sprintf("parameter %s must be a boolean", paramName(sf)), err)
		}
		fv.SetBool(b)
	default:
		return Error(http.StatusInternalServerError, "", fmt.Errorf("endpoint: decode: unsupported field kind %s", fv.Kind()))
	}
	return nil
}

func paramName(sf reflect.StructField) string {
	for _, tag := range []string{"query", "header", "cookie"} {
		if name, exists := sf.Tag.Lookup(tag); exists && name != "" {
			return name
		}
	}
	return strings.ToLower(sf.Name)
}

func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return Error(http.StatusBadRequest, "failed to read request body", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return Error(http.StatusBadRequest, "invalid JSON body", err)
	}
	return nil
}
