package inputval

import (
	"strings"
	"testing"
)

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"manager", true},
		{"user_1", true},
		{"a-b-c", true},
		{"abc", true},

		{"ab", false},           // too short
		{"", false},
		{"has space", false},
		{"עברית", false},        // usernames are ASCII only
		{"user@name", false},
		{string(make([]byte, 51)), false}, // too long
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			if got := IsValidUsername(tt.username); got != tt.want {
				t.Errorf("IsValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestIsValidFullName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Dana Levi", true},
		{"דנה לוי", true}, // Hebrew block allowed
		{"O'Brien-Smith", true},

		{"", false},
		{"   ", false},
		{"Dana123", false},
		{"Dana <script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidFullName(tt.name); got != tt.want {
				t.Errorf("IsValidFullName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsValidPassword(t *testing.T) {
	if IsValidPassword("short") {
		t.Error("7-char password accepted")
	}
	if !IsValidPassword("manager123") {
		t.Error("valid password rejected")
	}
	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	if IsValidPassword(string(long)) {
		t.Error("129-char password accepted")
	}
}

func TestIsValidSlot(t *testing.T) {
	tests := []struct {
		slot string
		want bool
	}{
		{"09:00", true},
		{"23:59", true},
		{"00:00", true},

		{"24:00", false},
		{"9:00", false},
		{"09:60", false},
		{"0900", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			if got := IsValidSlot(tt.slot); got != tt.want {
				t.Errorf("IsValidSlot(%q) = %v, want %v", tt.slot, got, tt.want)
			}
		})
	}
}

func TestStruct_UsesLabels(t *testing.T) {
	type payload struct {
		Username string `validate:"required,username" label:"Username"`
	}

	err := Struct(payload{Username: "x"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Error(); !strings.HasPrefix(got, "Username") {
		t.Errorf("error should lead with the field label, got %q", got)
	}
}
