package keypoint

import "testing"

func TestNew_TruncatesSimilarPoints(t *testing.T) {
	kp := New("Configure the firewall.", 2, []float32{0.1}, []string{"a", "b", "c", "d"}, 14)

	if kp.Text() != "Configure the firewall." {
		t.Errorf("Text() = %q", kp.Text())
	}
	if kp.ClusterID() != 2 {
		t.Errorf("ClusterID() = %d", kp.ClusterID())
	}
	if kp.SourceOffset() != 14 {
		t.Errorf("SourceOffset() = %d", kp.SourceOffset())
	}
	if got := len(kp.SimilarPoints()); got != MaxSimilarPoints {
		t.Errorf("len(SimilarPoints()) = %d, want %d", got, MaxSimilarPoints)
	}
}

func TestNew_CopiesSimilarPoints(t *testing.T) {
	similar := []string{"a"}
	kp := New("text", 0, nil, similar, 0)
	similar[0] = "mutated"

	if kp.SimilarPoints()[0] != "a" {
		t.Errorf("SimilarPoints() shares caller slice: %v", kp.SimilarPoints())
	}
}

func TestNew_NilSimilarIsEmpty(t *testing.T) {
	kp := New("text", 0, nil, nil, 0)
	if kp.SimilarPoints() == nil || len(kp.SimilarPoints()) != 0 {
		t.Errorf("SimilarPoints() = %#v, want empty slice", kp.SimilarPoints())
	}
}

func TestTextUnitAndCluster(t *testing.T) {
	u := NewTextUnit("Login via RDP.", 40)
	if u.Text() != "Login via RDP." || u.SourceOffset() != 40 {
		t.Errorf("unexpected unit: %q@%d", u.Text(), u.SourceOffset())
	}

	c := NewCluster(1, []int{0, 3}, []float32{0.5})
	if c.ID() != 1 || len(c.Members()) != 2 || c.Centroid()[0] != 0.5 {
		t.Errorf("unexpected cluster: %+v", c)
	}
}
