package obtainable_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/obtainable/pkg/obtainable"
)

func TestBuildKey(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		key  string
		args obtainable.Args
		want string
	}{
		{
			name: "id only",
			key:  "key-test",
			args: obtainable.Args{"id": 142},
			want: "test:142:key-testing",
		},
		{
			name: "no id",
			key:  "key-test",
			args: obtainable.Args{"limit": 10},
			want: "test:key-testing:limit=10",
		},
		{
			name: "id and trailing pair",
			key:  "key-test",
			args: obtainable.Args{"id": 12, "limit": 10},
			want: "test:12:key-testing:limit=10",
		},
		{
			name: "placeholders",
			key:  "key-test-args",
			args: obtainable.Args{"id": 26, "user": 12, "sort": "desc"},
			want: "test:26:key-testing-args:12:desc",
		},
		{
			name: "placeholders and sorted pairs",
			key:  "key-test-args",
			args: obtainable.Args{"id": 26, "user": 12, "sort": "desc", "limit": 10, "active": true},
			want: "test:26:key-testing-args:12:desc:active=1:limit=10",
		},
		{
			name: "unmapped key",
			key:  "simple-test",
			args: nil,
			want: "test:simple-test",
		},
		{
			name: "false and nil values",
			key:  "simple-test",
			args: obtainable.Args{"b": false, "a": nil},
			want: "test:simple-test:a=:b=0",
		},
		{
			name: "floats and strings",
			key:  "simple-test",
			args: obtainable.Args{"ratio": 0.25, "name": "x"},
			want: "test:simple-test:name=x:ratio=0.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.obtainer.BuildKey(tt.key, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildKey_Deterministic(t *testing.T) {
	f := newFixture(t)
	args := obtainable.Args{"id": 1, "z": 1, "a": 2, "m": 3, "b": 4}

	first, err := f.obtainer.BuildKey("key-test", args)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		got, _ := f.obtainer.BuildKey("key-test", args)
		require.Equal(t, first, got)
	}
	assert.Equal(t, "test:1:key-testing:a=2:b=4:m=3:z=1", first)
}

func TestBuildKey_DoesNotMutateArgs(t *testing.T) {
	f := newFixture(t)
	args := obtainable.Args{"id": 26, "user": 12, "sort": "desc"}
	want := obtainable.Args{"id": 26, "user": 12, "sort": "desc"}

	_, err := f.obtainer.BuildKey("key-test-args", args)
	require.NoError(t, err)
	assert.Equal(t, want, args)
}

func TestBuildKey_MissingArguments(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name        string
		args        obtainable.Args
		wantMissing []string
	}{
		{"none given", obtainable.Args{"id": 1}, []string{"user", "sort"}},
		{"sort missing", obtainable.Args{"user": 12}, []string{"sort"}},
		{"id does not count", obtainable.Args{"id": 1, "sort": "asc"}, []string{"user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.obtainer.BuildKey("key-test-args", tt.args)
			require.ErrorIs(t, err, obtainable.ErrMissingRequiredMappedArguments)

			var missing *obtainable.MissingArgumentsError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, "key-test-args", missing.Key)
			assert.Equal(t, tt.wantMissing, missing.Missing)
		})
	}
}

func TestFilterObtainableKey(t *testing.T) {
	tests := []struct {
		name     string
		template string
		args     obtainable.Args
		want     string
	}{
		{"no placeholders", "plain", obtainable.Args{"a": 1}, "plain"},
		{"all present", "orders:$status:$page", obtainable.Args{"status": "open", "page": 2}, "orders:open:2"},
		{"unmatched left alone", "orders:$status:$page", obtainable.Args{"status": "open"}, "orders:open:$page"},
		{"placeholder inside segment", "page-$n", obtainable.Args{"n": 3}, "page-3"},
		{"bare mark", "a:$:b", obtainable.Args{}, "a:$:b"},
		{"bool value", "flag:$on", obtainable.Args{"on": true}, "flag:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, obtainable.FilterObtainableKey(tt.template, tt.args))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"user", "sort", "n"}, obtainable.Placeholders("a:$user:$sort:$user:page-$n"))
	assert.Empty(t, obtainable.Placeholders("plain"))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"true", true, "1"},
		{"false", false, "0"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 1.5, "1.5"},
		{"string", "abc", "abc"},
		{"stringer", 90 * time.Second, "1m30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, obtainable.FormatValue(tt.in))
		})
	}
}

func TestTags(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []string{"obt", "obt:test", "obt:test:key-test"}, f.obtainer.Tags("key-test"))
	assert.Equal(t, "obt:test:key-test", f.obtainer.Tag("key-test"))
	assert.Equal(t, "obt:test", f.obtainer.OwnerTag())
	assert.Equal(t, "obt:other:k", obtainable.SpecificTag("obt:other", "k"))
}

func TestTTL(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, 5*time.Minute, f.obtainer.TTL("short-lived"))
	assert.Equal(t, time.Hour, f.obtainer.TTL("key-test"))
}

func TestMethodName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"simple-test", "simpleTest"},
		{"key-test-args", "keyTestArgs"},
		{"snake_case_key", "snakeCaseKey"},
		{"with spaces", "withSpaces"},
		{"Already", "already"},
		{"single", "single"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, obtainable.MethodName(tt.key))
		})
	}
}
