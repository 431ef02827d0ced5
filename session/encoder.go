package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersionV1 = 1

// Encode serializes a session into the compact binary wire format. The
// session ID is the Redis key and is deliberately not part of the blob;
// Decode callers restore it from the key.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionV1)

	if len(s.Principal) > MaxPrincipalLen {
		return nil, ErrPrincipalTooLong
	}
	buf.WriteByte(byte(len(s.Principal)))
	buf.WriteString(s.Principal)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.LastActivityAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a binary session blob. The returned session has an empty
// SessionID; callers set it from the key the blob was read under.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionV1 {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	principalLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	principal := make([]byte, principalLen)
	if _, err := io.ReadFull(reader, principal); err != nil {
		return nil, err
	}
	s.Principal = string(principal)

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.LastActivityAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	return s, nil
}
