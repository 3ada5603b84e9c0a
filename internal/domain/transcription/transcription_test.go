package transcription

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		text    string
		wantErr bool
	}{
		{"valid", "t-1", "Setup requires VPN access.", false},
		{"missing id", "", "text", true},
		{"blank text", "t-1", "  \n ", true},
		{"too large", "t-1", strings.Repeat("a", MaxTextSize+1), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.id, "meeting.txt", tc.text, nil, 1)
			if (err != nil) != tc.wantErr {
				t.Errorf("New() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestHasKeyPoint(t *testing.T) {
	kps := []keypoint.KeyPoint{
		keypoint.New("Setup requires VPN access.", 0, nil, []string{"VPN is mandatory."}, 0),
	}
	tr := Reconstruct("t-1", "", "irrelevant", kps, 0)

	if !tr.HasKeyPoint("Setup requires VPN access.") {
		t.Error("expected representative to match")
	}
	if !tr.HasKeyPoint("VPN is mandatory.") {
		t.Error("expected similar point to match")
	}
	if tr.HasKeyPoint("Unrelated.") {
		t.Error("unexpected match")
	}
}
