package youtube

// Test fixtures shared by the rss and api tests.

// sampleAtomFeed is a trimmed YouTube channel feed with two entries.
const sampleAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">
  <title>Test Channel</title>
  <author>
    <name>Test Channel</name>
    <uri>https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw</uri>
  </author>
  <entry>
    <id>yt:video:dQw4w9WgXcQ</id>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <yt:channelId>UCuAXFkgsw1L7xaCfnd5JJOw</yt:channelId>
    <title>First Video</title>
    <published>2025-01-15T10:00:00+00:00</published>
    <updated>2025-01-15T12:00:00+00:00</updated>
    <media:group>
      <media:description>The first test video.</media:description>
      <media:thumbnail url="https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg" width="480" height="360"/>
      <media:community>
        <media:statistics views="1500000"/>
      </media:community>
    </media:group>
  </entry>
  <entry>
    <id>yt:video:9bZkp7q19f0</id>
    <yt:videoId>9bZkp7q19f0</yt:videoId>
    <yt:channelId>UCuAXFkgsw1L7xaCfnd5JJOw</yt:channelId>
    <title>Second Video</title>
    <published>2025-01-10T08:30:00+00:00</published>
    <updated>2025-01-10T09:00:00+00:00</updated>
    <media:group>
      <media:description>The second test video.</media:description>
      <media:thumbnail url="https://i.ytimg.com/vi/9bZkp7q19f0/hqdefault.jpg" width="480" height="360"/>
      <media:community>
        <media:statistics views="42"/>
      </media:community>
    </media:group>
  </entry>
</feed>`

// sampleEmptyAtomFeed is a feed for a channel with no uploads.
const sampleEmptyAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">
  <title>Empty Channel</title>
  <author>
    <name>Empty Channel</name>
    <uri>https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw</uri>
  </author>
</feed>`
