// internal/launchpad/layout.go
package launchpad

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
)

// The launchpad program stores three account variants, each prefixed with an
// 8-byte discriminator. The store can only test byte equality at fixed
// offsets, so every query starts from these tables.

// RecordKind selects one of the program's account variants.
type RecordKind int

const (
	RecordEntry RecordKind = iota
	RecordParticipant
	RecordTreasury
)

func (k RecordKind) String() string {
	switch k {
	case RecordEntry:
		return "entry"
	case RecordParticipant:
		return "participant"
	case RecordTreasury:
		return "treasury"
	}
	return fmt.Sprintf("record(%d)", int(k))
}

var (
	// EntryDiscriminator marks token entry accounts.
	EntryDiscriminator = []byte{201, 88, 14, 197, 56, 172, 41, 230}
	// ParticipantDiscriminator marks per-wallet participant accounts.
	ParticipantDiscriminator = []byte{94, 180, 27, 61, 202, 115, 9, 144}
	// TreasuryDiscriminator marks the singleton treasury account.
	TreasuryDiscriminator = []byte{33, 216, 131, 70, 159, 22, 248, 105}
)

// FieldKind is the wire interpretation of a field's bytes.
type FieldKind int

const (
	FieldKey FieldKind = iota // fixed-width 32-byte public key
	FieldU64
	FieldI64
	FieldOptionalI64 // i64 with a negative sentinel meaning "unset"
	FieldOptionalKey // 1-byte presence tag followed by a 32-byte key
)

// Signed reports whether the field carries a two's-complement value, which
// is what makes sign-byte bucketing applicable to it.
func (k FieldKind) Signed() bool {
	return k == FieldI64 || k == FieldOptionalI64
}

// Field describes where a record field lives inside the account buffer.
type Field struct {
	Offset uint64
	Width  uint64
	Kind   FieldKind
}

// SignByteOffset is the offset of the most-significant byte of a
// little-endian signed field; the single byte the store can cheaply test
// to split positive and negative buckets.
func (f Field) SignByteOffset() uint64 {
	return f.Offset + f.Width - 1
}

// DiscriminatorWidth is the length of the variant tag at offset zero.
const DiscriminatorWidth = 8

// BondedTimeUnset is the bondedTime sentinel before the liquidity event.
const BondedTimeUnset = int64(-1)

// Account sizes, discriminator included.
const (
	entryBaseSize   = 104 // through bondedTime
	entryFullSize   = 137 // with optional poolId tail
	participantSize = 88
	treasurySize    = 40
)

var entryLayout = map[string]Field{
	"owner":          {Offset: 8, Width: 32, Kind: FieldKey},
	"subject":        {Offset: 40, Width: 32, Kind: FieldKey},
	"lockedAmount":   {Offset: 72, Width: 8, Kind: FieldU64},
	"investedAmount": {Offset: 80, Width: 8, Kind: FieldI64},
	"creationTime":   {Offset: 88, Width: 8, Kind: FieldI64},
	"bondedTime":     {Offset: 96, Width: 8, Kind: FieldOptionalI64},
	"poolId":         {Offset: 104, Width: 33, Kind: FieldOptionalKey},
}

var participantLayout = map[string]Field{
	"participant":     {Offset: 8, Width: 32, Kind: FieldKey},
	"subject":         {Offset: 40, Width: 32, Kind: FieldKey},
	"lockedAmount":    {Offset: 72, Width: 8, Kind: FieldU64},
	"claimableAmount": {Offset: 80, Width: 8, Kind: FieldU64},
}

var treasuryLayout = map[string]Field{
	"treasury": {Offset: 8, Width: 32, Kind: FieldKey},
}

var layouts = map[RecordKind]map[string]Field{
	RecordEntry:       entryLayout,
	RecordParticipant: participantLayout,
	RecordTreasury:    treasuryLayout,
}

// Discriminator returns the variant tag for a record kind.
func Discriminator(kind RecordKind) []byte {
	switch kind {
	case RecordEntry:
		return EntryDiscriminator
	case RecordParticipant:
		return ParticipantDiscriminator
	case RecordTreasury:
		return TreasuryDiscriminator
	}
	return nil
}

// FieldSpec looks up a field in the layout table of the given record kind.
func FieldSpec(kind RecordKind, name string) (Field, error) {
	l, ok := layouts[kind]
	if !ok {
		return Field{}, fmt.Errorf("%w: record kind %s", ErrUnknownField, kind)
	}
	f, ok := l[name]
	if !ok {
		return Field{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, kind, name)
	}
	return f, nil
}

func checkLen(data []byte, offset, width uint64) error {
	if uint64(len(data)) < offset+width {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrLayoutMismatch, offset+width, len(data))
	}
	return nil
}

// DecodeU64 reads a little-endian u64 at the given offset.
func DecodeU64(data []byte, offset uint64) (uint64, error) {
	if err := checkLen(data, offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data[offset : offset+8]), nil
}

// DecodeI64 reads a little-endian i64 at the given offset.
func DecodeI64(data []byte, offset uint64) (int64, error) {
	u, err := DecodeU64(data, offset)
	if err != nil {
		return 0, err
	}
	return int64(u), nil
}

// DecodeKey reads a 32-byte public key at the given offset.
func DecodeKey(data []byte, offset uint64) (solana.PublicKey, error) {
	if err := checkLen(data, offset, 32); err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(data[offset : offset+32]), nil
}

// DecodeSignByte reads the single most-significant byte of a little-endian
// i64 and reports its sign: 0x00 means non-negative, 0xFF means negative.
// Values stored in these fields never leave the range where the MSB is a
// pure sign extension, so any other byte is rejected with ErrSignByte
// instead of being defaulted to a bucket.
func DecodeSignByte(data []byte, offset uint64) (negative bool, err error) {
	if err := checkLen(data, offset, 1); err != nil {
		return false, err
	}
	switch data[offset] {
	case 0x00:
		return false, nil
	case 0xFF:
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02X at offset %d", ErrSignByte, data[offset], offset)
	}
}

// Record is a decoded account of one of the program's variants.
type Record interface {
	Kind() RecordKind
}

// EntryRecord is the per-token entry account. BondedTime holds the raw i64;
// BondedTimeUnset means the liquidity event has not happened yet, and once
// set it never reverts.
type EntryRecord struct {
	Owner          solana.PublicKey
	Subject        solana.PublicKey
	LockedAmount   fixedpoint.Value
	InvestedAmount fixedpoint.Value // signed; negative while the treasury is net-short
	CreationTime   int64
	BondedTime     int64
	PoolID         *solana.PublicKey
}

func (*EntryRecord) Kind() RecordKind { return RecordEntry }

// Bonded reports whether the one-time liquidity event has occurred.
func (r *EntryRecord) Bonded() bool { return r.BondedTime >= 0 }

// ParticipantRecord is the per-wallet account for one token.
type ParticipantRecord struct {
	Participant     solana.PublicKey
	Subject         solana.PublicKey
	LockedAmount    fixedpoint.Value
	ClaimableAmount fixedpoint.Value
}

func (*ParticipantRecord) Kind() RecordKind { return RecordParticipant }

// TreasuryRecord is the singleton treasury account.
type TreasuryRecord struct {
	Treasury solana.PublicKey
}

func (*TreasuryRecord) Kind() RecordKind { return RecordTreasury }

func checkDiscriminator(data, want []byte) error {
	if len(data) < DiscriminatorWidth {
		return fmt.Errorf("%w: no discriminator in %d bytes", ErrLayoutMismatch, len(data))
	}
	for i := 0; i < DiscriminatorWidth; i++ {
		if data[i] != want[i] {
			return fmt.Errorf("%w: wrong discriminator", ErrLayoutMismatch)
		}
	}
	return nil
}

// ParseEntry decodes a full entry account buffer.
func ParseEntry(data []byte) (*EntryRecord, error) {
	if err := checkDiscriminator(data, EntryDiscriminator); err != nil {
		return nil, err
	}
	if len(data) < entryBaseSize {
		return nil, fmt.Errorf("%w: entry needs %d bytes, have %d", ErrLayoutMismatch, entryBaseSize, len(data))
	}

	r := &EntryRecord{}
	var err error
	if r.Owner, err = DecodeKey(data, entryLayout["owner"].Offset); err != nil {
		return nil, err
	}
	if r.Subject, err = DecodeKey(data, entryLayout["subject"].Offset); err != nil {
		return nil, err
	}
	locked, err := DecodeU64(data, entryLayout["lockedAmount"].Offset)
	if err != nil {
		return nil, err
	}
	r.LockedAmount = fixedpoint.FromUint64(locked)
	invested, err := DecodeI64(data, entryLayout["investedAmount"].Offset)
	if err != nil {
		return nil, err
	}
	r.InvestedAmount = fixedpoint.New(invested)
	if r.CreationTime, err = DecodeI64(data, entryLayout["creationTime"].Offset); err != nil {
		return nil, err
	}
	if r.BondedTime, err = DecodeI64(data, entryLayout["bondedTime"].Offset); err != nil {
		return nil, err
	}

	// Optional pool tail: older entries may predate the field.
	poolField := entryLayout["poolId"]
	if uint64(len(data)) >= poolField.Offset+poolField.Width && data[poolField.Offset] == 1 {
		key, err := DecodeKey(data, poolField.Offset+1)
		if err != nil {
			return nil, err
		}
		r.PoolID = &key
	}
	return r, nil
}

// ParseParticipant decodes a full participant account buffer.
func ParseParticipant(data []byte) (*ParticipantRecord, error) {
	if err := checkDiscriminator(data, ParticipantDiscriminator); err != nil {
		return nil, err
	}
	if len(data) < participantSize {
		return nil, fmt.Errorf("%w: participant needs %d bytes, have %d", ErrLayoutMismatch, participantSize, len(data))
	}

	r := &ParticipantRecord{}
	var err error
	if r.Participant, err = DecodeKey(data, participantLayout["participant"].Offset); err != nil {
		return nil, err
	}
	if r.Subject, err = DecodeKey(data, participantLayout["subject"].Offset); err != nil {
		return nil, err
	}
	locked, err := DecodeU64(data, participantLayout["lockedAmount"].Offset)
	if err != nil {
		return nil, err
	}
	r.LockedAmount = fixedpoint.FromUint64(locked)
	claimable, err := DecodeU64(data, participantLayout["claimableAmount"].Offset)
	if err != nil {
		return nil, err
	}
	r.ClaimableAmount = fixedpoint.FromUint64(claimable)
	return r, nil
}

// ParseTreasury decodes the treasury account buffer.
func ParseTreasury(data []byte) (*TreasuryRecord, error) {
	if err := checkDiscriminator(data, TreasuryDiscriminator); err != nil {
		return nil, err
	}
	if len(data) < treasurySize {
		return nil, fmt.Errorf("%w: treasury needs %d bytes, have %d", ErrLayoutMismatch, treasurySize, len(data))
	}
	key, err := DecodeKey(data, treasuryLayout["treasury"].Offset)
	if err != nil {
		return nil, err
	}
	return &TreasuryRecord{Treasury: key}, nil
}

// ParseRecord decodes a buffer as the given record kind.
func ParseRecord(kind RecordKind, data []byte) (Record, error) {
	switch kind {
	case RecordEntry:
		return ParseEntry(data)
	case RecordParticipant:
		return ParseParticipant(data)
	case RecordTreasury:
		return ParseTreasury(data)
	}
	return nil, fmt.Errorf("%w: record kind %s", ErrUnknownField, kind)
}
