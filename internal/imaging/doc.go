// Package imaging reads and writes the rasters the redaction pipeline works
// on.
//
// Decoding goes through github.com/disintegration/imaging with EXIF
// auto-orientation, so the raster handed to OCR is the same upright raster
// that gets blurred and saved. Encoding picks the format from the output
// file extension and writes atomically.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// SubImage keeps the parent's coordinate system, so a box found on a region
// of an image can be used on the whole image without translation.
//
// # Output Naming
//
// OutputPath implements the naming rule: the input's file name inside the
// output directory when one is given, otherwise name.blurred.ext next to
// the input. Writing into the input's own directory with an output
// directory set replaces the input file.
//
// # Error Handling
//
// Sentinel errors let callers map failures to messages:
//   - ErrInputNotFound: the input path does not exist
//   - ErrEncode: the output could not be encoded or written
//
// Other errors (unreadable or undecodable input) are returned wrapped.
//
// # Performance Considerations
//
// ImageCache keeps decoded images in memory for long-running processes such
// as the MCP server. Use Evict() or Clear() to release them.
package imaging
