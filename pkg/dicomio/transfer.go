package dicomio

import (
	"encoding/binary"
	"strings"
)

// Transfer syntax UIDs the diagnostics distinguish (DICOM PS3.5 section 8)
const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	ExplicitVRBigEndian            = "1.2.840.10008.1.2.2"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
	JPEGBaseline8Bit               = "1.2.840.10008.1.2.4.50"
	JPEGLosslessSV1                = "1.2.840.10008.1.2.4.70"
	JPEGLSLossless                 = "1.2.840.10008.1.2.4.80"
	JPEG2000Lossless               = "1.2.840.10008.1.2.4.90"
	JPEG2000                       = "1.2.840.10008.1.2.4.91"
	RLELossless                    = "1.2.840.10008.1.2.5"

	jpegFamilyPrefix = "1.2.840.10008.1.2.4."
)

// Compression groups transfer syntaxes by the codec needed to read them
type Compression int

const (
	Uncompressed Compression = iota
	JPEGFamily
	RLE
	UnknownCompression
)

func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "uncompressed"
	case JPEGFamily:
		return "JPEG compressed"
	case RLE:
		return "RLE compressed"
	default:
		return "unknown"
	}
}

// ClassifyTransferSyntax reports the compression family of a transfer syntax UID
func ClassifyTransferSyntax(uid string) Compression {
	uid = normalizeUID(uid)
	switch {
	case uid == ImplicitVRLittleEndian, uid == ExplicitVRLittleEndian,
		uid == ExplicitVRBigEndian, uid == DeflatedExplicitVRLittleEndian:
		return Uncompressed
	case strings.HasPrefix(uid, jpegFamilyPrefix):
		return JPEGFamily
	case uid == RLELossless:
		return RLE
	default:
		return UnknownCompression
	}
}

// byteOrder returns the byte order of OW values under the given syntax
func byteOrder(uid string) binary.ByteOrder {
	if normalizeUID(uid) == ExplicitVRBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// normalizeUID strips the padding UI values may carry
func normalizeUID(uid string) string {
	return strings.TrimRight(strings.TrimSpace(uid), "\x00 ")
}
