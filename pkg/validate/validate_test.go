package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestSchema_CollectsAllViolations(t *testing.T) {
	schema := Schema{
		{Field: "email", Checks: []Check{Email()}},
		{Field: "phLevel", Checks: []Check{Float(Bound(0), Bound(14))}},
		{Field: "season", Checks: []Check{Enum("spring", "summer", "autumn", "winter", "rainy", "dry")}},
	}

	body := decode(t, `{"email":"not-an-email","phLevel":15.5,"season":"monsoon"}`)
	vs := schema.Apply(body)
	require.Len(t, vs, 3)

	fields := []string{vs[0].Field, vs[1].Field, vs[2].Field}
	require.Equal(t, []string{"email", "phLevel", "season"}, fields)
}

func TestSchema_MissingRequiredField(t *testing.T) {
	schema := Schema{
		{Field: "farmId", Checks: []Check{String(1)}},
		{Field: "notes", Optional: true, Checks: []Check{String(1)}},
	}

	vs := schema.Apply(decode(t, `{}`))
	require.Len(t, vs, 1)
	require.Equal(t, "farmId", vs[0].Field)
	require.Equal(t, "is required", vs[0].Message)
}

func TestSchema_NestedPaths(t *testing.T) {
	schema := Schema{
		{Field: "location", Checks: []Check{Object()}},
		{Field: "location.lat", Checks: []Check{Float(nil, nil)}},
		{Field: "location.lng", Checks: []Check{Float(nil, nil)}},
		{Field: "location.address", Checks: []Check{String(1)}},
	}

	ok := decode(t, `{"location":{"lat":-1.28,"lng":36.82,"address":"Nairobi"}}`)
	require.Empty(t, schema.Apply(ok))

	bad := decode(t, `{"location":{"lat":"x","lng":36.82}}`)
	vs := schema.Apply(bad)
	require.Len(t, vs, 2) // lat wrong type, address missing
}

func TestChecks(t *testing.T) {
	require.Empty(t, Email()("farmer@example.com"))
	require.NotEmpty(t, Email()("nope"))

	require.Empty(t, Phone()("+254712345678"))
	require.Empty(t, Phone()("254712345678"))
	require.NotEmpty(t, Phone()("call-me"))

	require.Empty(t, Float(Bound(0), nil)(3.5))
	require.NotEmpty(t, Float(Bound(0), nil)(-1.0))

	require.Empty(t, ISODate()("2026-03-15"))
	require.Empty(t, ISODate()("2026-03-15T08:00:00Z"))
	require.NotEmpty(t, ISODate()("15/03/2026"))

	require.Empty(t, String(2)("ok"))
	require.NotEmpty(t, String(2)(" a "))
}
