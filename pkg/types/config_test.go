package types

import (
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{DataDir: "/tmp/taplist"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	empty := Config{}
	if err := empty.Validate(); err != ErrDataDirEmpty {
		t.Errorf("expected ErrDataDirEmpty, got %v", err)
	}

	negative := Config{DataDir: "/tmp/taplist", LockAcquireTimeout: -time.Second}
	if err := negative.Validate(); err != ErrTimeoutNegative {
		t.Errorf("expected ErrTimeoutNegative, got %v", err)
	}

	badBatch := Config{DataDir: "/tmp/taplist", MigrationBatchSize: -1}
	if err := badBatch.Validate(); err != ErrBatchSizeNegative {
		t.Errorf("expected ErrBatchSizeNegative, got %v", err)
	}
}

func TestConfig_Normalize(t *testing.T) {
	c := Config{DataDir: "/tmp/taplist"}.Normalize()
	if c.LockAcquireTimeout != DefaultLockAcquireTimeout {
		t.Errorf("acquire timeout not defaulted: %v", c.LockAcquireTimeout)
	}
	if c.LockHoldTimeout != DefaultLockHoldTimeout {
		t.Errorf("hold timeout not defaulted: %v", c.LockHoldTimeout)
	}
	if c.MigrationBatchSize != DefaultMigrationBatchSize {
		t.Errorf("batch size not defaulted: %d", c.MigrationBatchSize)
	}

	custom := Config{DataDir: "x", LockAcquireTimeout: time.Second, MigrationBatchSize: 7}.Normalize()
	if custom.LockAcquireTimeout != time.Second || custom.MigrationBatchSize != 7 {
		t.Error("explicit values must survive Normalize")
	}
}

func TestValidContainerType(t *testing.T) {
	for _, ct := range []ContainerType{ContainerPint, ContainerTulip, ContainerCan, ContainerBottle, ContainerFlight} {
		if !ValidContainerType(ct) {
			t.Errorf("%q should be valid", ct)
		}
	}
	if ValidContainerType("") {
		t.Error("zero value should not be valid")
	}
	if ValidContainerType("goblet") {
		t.Error("unknown value should not be valid")
	}
}
