/*
Package domain contains the core domain models of the slicer engine.

It defines the data flowing through a conversion run: the request and its print
settings, the bounding box accumulated from a mesh, the motion program produced
from it, and the ordered events that report progress to the host. This package is
kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - ConversionRequest: The encoded mesh plus Settings for one run.
  - BoundingBox: Axis-aligned extrema and triangle count derived from a mesh.
  - MotionProgram: The ordered G-code lines handed to the host on completion.
  - Event: A STATUS, PROGRESS, COMPLETE, ERROR or CANCELLED message of a run.
  - Run: The persisted record of a run, as kept by a ports.RunStore.
*/
package domain
